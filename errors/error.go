// this code is from https://github.com/brunocalza/go-bustub
// there is license and copyright notice in licenses/go-bustub dir

package errors

// Error is a string error type usable as a constant
type Error string

func (e Error) Error() string {
	return string(e)
}
