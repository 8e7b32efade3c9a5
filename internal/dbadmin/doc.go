/*
Package dbadmin implements the dbadmin commands.

Every command is a short, fixed sequence: build the template variables,
render files into the working root, then run terraform or ansible-playbook.
Failures stop the sequence. Nothing is rolled back: files already rendered
and playbooks already run stay as they are.
*/
package dbadmin
