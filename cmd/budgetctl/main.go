// Command budgetctl prints the dashboard, budgets and goals from the
// configured data backend and records goal contributions.
package main

func main() {
	Execute()
}
