package datastore

import (
	"os"
	"strings"

	"smokegomodule/shared/utils"
)

// EsIndexPrefix returns the index prefix from the environment or conf/opensearch.yaml
func EsIndexPrefix() string {
	p := strings.TrimSpace(os.Getenv("ES_INDEX_PREFIX"))
	if p == "" {
		p = strings.TrimSpace(os.Getenv("OPENSEARCH_INDEX_PREFIX"))
	}
	if p == "" {
		cfg := utils.LoadConfigMap(utils.ResolveConfFilePath("opensearch.yaml"))
		if cfg != nil {
			if v, ok := cfg["index_prefix"]; ok {
				if s, ok2 := v.(string); ok2 {
					p = strings.TrimSpace(s)
				}
			}
		}
	}
	return p
}

// PrefixedIndex applies EsIndexPrefix to index
func PrefixedIndex(index string) string {
	if p := EsIndexPrefix(); p != "" {
		return p + index
	}
	return index
}
