// Command tmplctl inspects and edits classic Mac OS resources through TMPL
// templates.
package main

func main() {
	execute()
}
