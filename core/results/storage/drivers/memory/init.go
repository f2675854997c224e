package memory

import "github.com/nextdhcp/dhcpester/core/results/storage"

func init() {
	storage.MustRegister("memory", func(_ map[string][]string) (storage.ResultStorage, error) {
		return New(), nil
	})
}
