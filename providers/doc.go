// Package providers groups the chat provider implementations. webex is the
// full reference provider, slack a reduced one; common holds the pieces they
// share and devkit the fakes and conformance checks used by their tests.
package providers
