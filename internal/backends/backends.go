package backends

import "dbcopilot/internal/copilot"

// Connectors holds the workspace's backend connections. A nil connector is
// valid: the specialist still registers and routes, its tools report
// ErrNoConnection when executed.
type Connectors struct {
	Mongo    Connector
	BigQuery Connector
	Postgres Connector
}

// RegisterAll registers every backend specialist with the registry. Call once
// during application initialization.
//
// Registration order is routing priority order: Mongo first (its signatures
// are the most distinctive), then BigQuery, then Postgres. The two SQL
// dialects share vocabulary, so for genuinely ambiguous input BigQuery wins
// by this order; changing the sequence changes routing.
func RegisterAll(reg *copilot.Registry, conns Connectors) {
	reg.MustRegister(newMongoRegistration(conns.Mongo))
	reg.MustRegister(newBigQueryRegistration(conns.BigQuery))
	reg.MustRegister(newPostgresRegistration(conns.Postgres))
}
