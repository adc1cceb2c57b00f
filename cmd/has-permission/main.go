// Command has-permission queries and manages the host permission model.
package main

func main() {
	Execute()
}
