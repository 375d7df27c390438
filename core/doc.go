// Package core contains the canonical messaging data model, the provider
// component contract, and the capability interfaces (transport, secrets)
// that a host injects into providers. Provider packages depend on core;
// core must not depend on any provider, transport, or storage adapter.
package core
