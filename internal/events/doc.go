// Package events defines the closed set of agent event types and their
// validated constructors.
//
// Every observable agent action (spawn, permission decision, budget
// deduction, task lifecycle) maps to exactly one event type. Constructors
// validate required fields up front and default absent optionals to safe
// zero values, so downstream consumers never branch on missing fields.
// Events are immutable once built.
package events
