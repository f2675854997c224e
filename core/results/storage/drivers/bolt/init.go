package bolt

import (
	"fmt"
	"time"

	"github.com/nextdhcp/dhcpester/core/results/storage"
	"go.etcd.io/bbolt"
)

func init() {
	storage.MustRegister("bolt", storageFactory)
}

func storageFactory(arguments map[string][]string) (storage.ResultStorage, error) {
	file := ""

	if args, ok := arguments["__args__"]; ok && len(args) > 0 {
		file = args[0]
	} else if f, ok := arguments["file"]; ok {
		if len(f) != 1 {
			return nil, fmt.Errorf("exactly one database file must be configured")
		}

		file = f[0]
	} else {
		return nil, fmt.Errorf("no database file configured")
	}

	return Open(file)
}

// Open opens or creates the bolt database at path
func Open(path string) (*Storage, error) {
	db, err := bbolt.Open(path, 0o660, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}

	if err := migrateDatabase(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Storage{db: db, path: path}, nil
}
