// Package testutil contains builders and scripted fakes used across tests to
// reduce boilerplate when constructing households and capabilities with
// known output. They are not intended for production usage.
package testutil
