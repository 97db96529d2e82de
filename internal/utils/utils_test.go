package utils

import (
  "testing"

  "github.com/stretchr/testify/assert"
  "github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
  hash, err := HashPassword("hunter22", nil)
  require.NoError(t, err)
  assert.NotEqual(t, "hunter22", hash)
  assert.True(t, CheckPassword(hash, "hunter22"))
  assert.False(t, CheckPassword(hash, "hunter23"))
}

func TestNormalisers(t *testing.T) {
  assert.Equal(t, "ada@example.com", NormalizeEmail("  Ada@Example.COM "))
  assert.Equal(t, "lovelace", NormalizeName(" Lovelace"))

  blank := "  "
  assert.Nil(t, NormalizePhone(&blank))
  assert.Nil(t, NormalizePhone(nil))
  phone := " +15550001 "
  assert.Equal(t, "+15550001", *NormalizePhone(&phone))
}

func TestGetEnvHelpers(t *testing.T) {
  t.Setenv("NG_TEST_INT", "42")
  t.Setenv("NG_TEST_BAD_INT", "forty")
  t.Setenv("NG_TEST_BOOL", "true")
  t.Setenv("NG_TEST_LIST", "a, b,,c")

  assert.Equal(t, 42, GetEnvAsInt("NG_TEST_INT", 1, nil))
  assert.Equal(t, 7, GetEnvAsInt("NG_TEST_BAD_INT", 7, nil))
  assert.True(t, GetEnvAsBool("NG_TEST_BOOL", false, nil))
  assert.Equal(t, []string{"a", "b", "c"}, GetEnvAsSlice("NG_TEST_LIST", nil, nil))
  assert.Equal(t, "fallback", GetEnv("NG_TEST_MISSING", "fallback", nil))
}
