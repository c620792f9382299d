package schema

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/Adamcza88/ai-matic-bot-sub001/internal/config"
)

type JsonSchemaTestSuite struct {
	suite.Suite
}

func TestJsonSchemaTestSuite(t *testing.T) {
	suite.Run(t, new(JsonSchemaTestSuite))
}

func (suite *JsonSchemaTestSuite) TestToJSONSchema() {
	type TestConfig struct {
		MaxOrders int    `yaml:"maxOrders" jsonschema:"title=Max Orders,description=The placement cap per minute,minimum=1,default=5"`
		Symbol    string `yaml:"symbol" jsonschema:"title=Symbol,description=The symbol to trade,default=BTCUSDT"`
	}

	schema, err := ToJSONSchema(TestConfig{})
	suite.NoError(err)
	suite.NotEmpty(schema)
	suite.Contains(schema, "Max Orders")
}

func (suite *JsonSchemaTestSuite) TestRootConfigSchema() {
	schema, err := ToJSONSchema(config.Config{})
	suite.NoError(err)
	suite.Contains(schema, "symbols")
	suite.Contains(schema, "maxOrdersPerMin")
	suite.Contains(schema, "maxAllowedRiskUsd")
	suite.Contains(schema, "listen")
}
