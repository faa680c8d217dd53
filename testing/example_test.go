package testing_test

import (
	"testing"

	"github.com/galaplate/dbdeploy/migrate"
	coretesting "github.com/galaplate/dbdeploy/testing"
	"github.com/stretchr/testify/suite"
)

type ExampleTestSuite struct {
	coretesting.TestCase
}

func (s *ExampleTestSuite) TestFirstDeployCreatesSchema() {
	dbHelper := coretesting.NewDatabaseHelper(&s.TestCase)
	revisions := coretesting.NewRevisionHelper(&s.TestCase)

	report := s.Deploy()

	s.True(report.Initialized)
	s.NotEmpty(report.RunID)
	revisions.AssertRevisionCount(1)
	revisions.AssertLatestRevisionContains("CREATE TABLE orders")
	revisions.AssertOutputContains("Database migration completed")
	dbHelper.AssertTableExists("orders")
	dbHelper.AssertTableExists("download_tokens")
	dbHelper.AssertColumnExists("orders", "merchant_trade_no")
}

func (s *ExampleTestSuite) TestRedeployIsIdempotent() {
	revisions := coretesting.NewRevisionHelper(&s.TestCase)

	s.Deploy()
	report := s.Deploy()

	s.False(report.Initialized)
	s.ErrorIs(report.RevisionErr, migrate.ErrNoChanges)
	revisions.AssertRevisionCount(1)
}

func TestExampleTestSuite(t *testing.T) {
	suite.Run(t, new(ExampleTestSuite))
}

type DeployedDatabaseExampleSuite struct {
	coretesting.WithDeployedDatabase
}

func (s *DeployedDatabaseExampleSuite) TestOrdersStartEmpty() {
	dbHelper := coretesting.NewDatabaseHelper(&s.TestCase)

	dbHelper.AssertDatabaseCount("orders", 0)
}

func (s *DeployedDatabaseExampleSuite) TestInsertOrder() {
	dbHelper := coretesting.NewDatabaseHelper(&s.TestCase)

	s.Require().NoError(dbHelper.Insert("orders", map[string]any{
		"merchant_trade_no": "PAY20261015001",
		"product_code":      "ebook",
	}))

	dbHelper.AssertDatabaseCount("orders", 1)
	dbHelper.AssertDatabaseHas("orders", map[string]any{"merchant_trade_no": "PAY20261015001", "status": "created"})
}

func (s *DeployedDatabaseExampleSuite) TestMerchantTradeNoIsUnique() {
	dbHelper := coretesting.NewDatabaseHelper(&s.TestCase)
	order := map[string]any{"merchant_trade_no": "PAY20261015002"}

	s.Require().NoError(dbHelper.Insert("orders", order))
	s.Error(dbHelper.Insert("orders", map[string]any{"merchant_trade_no": "PAY20261015002"}))

	dbHelper.AssertDatabaseCount("orders", 1)
}

func TestDeployedDatabaseExampleSuite(t *testing.T) {
	suite.Run(t, new(DeployedDatabaseExampleSuite))
}
