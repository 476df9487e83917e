package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func configWith(values map[string]string) *EnvironmentConfig {
	return &EnvironmentConfig{
		environment: "staging",
		source:      ".env.staging",
		values:      values,
	}
}

func completeValues() map[string]string {
	return map[string]string{
		"OPENAI_API_KEY":        "sk-openai-key",
		"ANTHROPIC_API_KEY":     "sk-ant-key",
		"DATABASE_URL":          "postgresql://db.internal:5432/app",
		"REDIS_URL":             "redis://cache.internal:6379/0",
		"RABBITMQ_URL":          "amqp://broker.internal:5672",
		"JWT_SECRET_KEY":        "0123456789abcdef0123456789abcdef",
		"VERCEL_TOKEN":          "tok_deploy",
		"AWS_ACCESS_KEY_ID":     "AKIAEXAMPLE",
		"AWS_SECRET_ACCESS_KEY": "secret",
	}
}

func TestValidateComplete(t *testing.T) {
	result := Validate(configWith(completeValues()))

	assert.True(t, result.Valid())
	assert.NoError(t, result.Err())
	assert.Empty(t, result.Warnings)
}

func TestValidateCollectsAllMissing(t *testing.T) {
	values := completeValues()
	delete(values, "DATABASE_URL")
	delete(values, "JWT_SECRET_KEY")

	result := Validate(configWith(values))

	// Batch collector: both names appear, not just the first
	assert.False(t, result.Valid())
	assert.ElementsMatch(t, []string{"DATABASE_URL", "JWT_SECRET_KEY"}, result.Missing)

	err := result.Err()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
	assert.Contains(t, err.Error(), "JWT_SECRET_KEY")
}

func TestValidateEmptyValueIsMissing(t *testing.T) {
	values := completeValues()
	values["VERCEL_TOKEN"] = ""

	result := Validate(configWith(values))
	assert.Equal(t, []string{"VERCEL_TOKEN"}, result.Missing)
}

func TestValidateFormatWarningsAreAdvisory(t *testing.T) {
	values := completeValues()
	values["DATABASE_URL"] = "mysql://db.internal:3306/app"
	values["JWT_SECRET_KEY"] = "short"
	values["OPENAI_API_KEY"] = "not-a-key"
	values["ANTHROPIC_API_KEY"] = "sk-wrong-prefix"

	result := Validate(configWith(values))

	// Violations surface as warnings, never abort the run
	assert.True(t, result.Valid())
	assert.NoError(t, result.Err())
	assert.Len(t, result.Warnings, 4)
}

func TestValidateNoWarningsForMissingValues(t *testing.T) {
	values := map[string]string{}
	result := Validate(configWith(values))

	assert.Len(t, result.Missing, len(RequiredVariables))
	assert.Empty(t, result.Warnings)
}
