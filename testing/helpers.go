package testing

// WithDeployedDatabase runs the deployment before every test, so tests
// start from a fully migrated database.
type WithDeployedDatabase struct {
	TestCase
}

func (w *WithDeployedDatabase) SetupTest() {
	w.TestCase.SetupTest()
	w.Deploy()
}
