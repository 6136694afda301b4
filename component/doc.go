// Package component defines lifecycle interfaces for long-lived services
// such as the gateway client, and a Registry that starts them in order and
// stops them in reverse.
package component
