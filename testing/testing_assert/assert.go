// this code is from https://github.com/brunocalza/go-bustub
// there is license and copyright notice in licenses/go-bustub dir

package testing_assert

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

// Assert fails the test if the condition is false.
func Assert(tb testing.TB, condition bool, msg string, v ...interface{}) {
	tb.Helper()
	require.True(tb, condition, fmt.Sprintf(msg, v...))
}

// Ok fails the test if an err is not nil.
func Ok(tb testing.TB, err error) {
	tb.Helper()
	require.NoError(tb, err)
}

// Equals fails the test if exp is not equal to act.
func Equals(tb testing.TB, exp, act interface{}) {
	tb.Helper()
	require.Equal(tb, exp, act)
}

// Nil fails the test if obj is not nil.
func Nil(tb testing.TB, obj interface{}) {
	tb.Helper()
	require.Nil(tb, obj)
}

// NotNil fails the test if obj is nil.
func NotNil(tb testing.TB, obj interface{}) {
	tb.Helper()
	require.NotNil(tb, obj)
}
