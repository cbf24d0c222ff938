// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Table and column names follow the gym's existing Spanish schema
// (usuario, cliente, entrenador, pagos, carnets). Mappers convert between
// domain entities and persistence models; repositories only ever hand
// domain types to callers.
//
// Structure:
//   - base.go: shared persistence fields
//   - membership.go: accounts, clients, trainers, payments and cards
//   - outbox.go: outbox pattern model for event delivery
package models
