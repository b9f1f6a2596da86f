// Package database handles the local database connection.
//
// It provides a wrapper around GORM (Go Object Relational Mapping) to properly configure
// MySQL connections based on the application's configuration.
//
// # Connect
//
// The Connect function establishes and verifies a connection to the database.
// Schema migration for the tables this service owns lives with the feature
// packages that own them (see feature/mirror/mapping).
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
package database
