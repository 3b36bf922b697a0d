// Teardown - cloud account decommissioning engine.
// Snapshot. Classify. Destroy what must go, keep what must stay.
package main

func main() {
	Execute()
}
