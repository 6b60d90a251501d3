package domain

import "github.com/google/uuid"

// ensureID assigns a fresh UUID when id is still zero. IDs are generated in
// Go so the same models work on Postgres and on SQLite in tests.
func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
