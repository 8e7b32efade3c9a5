// Copyright 2025 VEXXHOST, Inc.
// SPDX-License-Identifier: Apache-2.0

/*
Package command runs external programs synchronously.

A batch passed to Runner.Run is executed in order and aborted at the first
command that exits non-zero. There is no rollback: side effects of earlier
commands persist.
*/
package command
