package main

import (
	"database/sql"
	"fmt"

	"punsj/internal/docstore"
	"punsj/internal/folder"
	"punsj/internal/journalpost"
	"punsj/internal/person"
	"punsj/internal/platform/config"
	"punsj/internal/platform/metrics"
)

type stores struct {
	persons      docstore.Store[person.Person]
	folders      folder.Stores
	journalposts docstore.Store[journalpost.Journalpost]
}

// newStores backs every entity with Postgres when db is set and with memory otherwise.
func newStores(db *sql.DB, cfg config.DatabaseConfig, m *metrics.Metrics) (*stores, error) {
	common := []docstore.Option{docstore.WithLockTimeout(cfg.LockTimeout), docstore.WithMetrics(m)}
	withUnique := append([]docstore.Option{docstore.WithUniqueFields("national_id")}, common...)

	var (
		s   stores
		err error
	)
	if db == nil {
		if s.persons, err = docstore.NewMemory[person.Person](docstore.TablePerson, withUnique...); err != nil {
			return nil, fmt.Errorf("person store: %w", err)
		}
		if s.folders.Folders, err = docstore.NewMemory[folder.Folder](docstore.TableFolder, common...); err != nil {
			return nil, fmt.Errorf("folder store: %w", err)
		}
		if s.folders.Buckets, err = docstore.NewMemory[folder.Bucket](docstore.TableBucket, common...); err != nil {
			return nil, fmt.Errorf("bucket store: %w", err)
		}
		if s.folders.Applications, err = docstore.NewMemory[folder.Application](docstore.TableApplication, common...); err != nil {
			return nil, fmt.Errorf("application store: %w", err)
		}
		if s.journalposts, err = docstore.NewMemory[journalpost.Journalpost](docstore.TableJournalpost, common...); err != nil {
			return nil, fmt.Errorf("journalpost store: %w", err)
		}
		return &s, nil
	}

	if s.persons, err = docstore.NewPostgres[person.Person](db, docstore.TablePerson, withUnique...); err != nil {
		return nil, fmt.Errorf("person store: %w", err)
	}
	if s.folders.Folders, err = docstore.NewPostgres[folder.Folder](db, docstore.TableFolder, common...); err != nil {
		return nil, fmt.Errorf("folder store: %w", err)
	}
	if s.folders.Buckets, err = docstore.NewPostgres[folder.Bucket](db, docstore.TableBucket, common...); err != nil {
		return nil, fmt.Errorf("bucket store: %w", err)
	}
	if s.folders.Applications, err = docstore.NewPostgres[folder.Application](db, docstore.TableApplication, common...); err != nil {
		return nil, fmt.Errorf("application store: %w", err)
	}
	if s.journalposts, err = docstore.NewPostgres[journalpost.Journalpost](db, docstore.TableJournalpost, common...); err != nil {
		return nil, fmt.Errorf("journalpost store: %w", err)
	}
	return &s, nil
}
