package publish

import (
	"context"

	"smokegomodule/internal/config"
	"smokegomodule/shared/datastore"
	"smokegomodule/shared/logging"
	"smokegomodule/shared/messagebus"
	"smokegomodule/shared/sqlstore"

	"github.com/disaster37/opensearch/v2"
)

// FromConfig builds the enabled sinks. A sink that cannot be created is logged and skipped.
func FromConfig(ctx context.Context, cfg config.PublishConfig, logger logging.Logger) *Fanout {
	var publishers []Publisher

	if mb := cfg.MessageBus; mb.Enabled {
		producer, err := messagebus.NewProducer(mb.Type, mb.ConfigFile, mb.LocalDir)
		if err != nil {
			logger.WithError(err).Errorw("message bus publisher disabled", "type", mb.Type)
		} else {
			publishers = append(publishers, NewBusPublisher(producer, mb.Topic))
		}
	}

	if osCfg := cfg.OpenSearch; osCfg.Enabled {
		options := []opensearch.ClientOptionFunc{
			opensearch.SetURL(osCfg.URL),
			opensearch.SetSniff(false),
		}
		if osCfg.Username != "" {
			options = append(options, opensearch.SetBasicAuth(osCfg.Username, osCfg.Password))
		}
		client, err := datastore.NewOpenSearchClient(options...)
		if err != nil {
			logger.WithError(err).Errorw("opensearch publisher disabled", "url", osCfg.URL)
		} else {
			publishers = append(publishers, NewSearchPublisher(client, osCfg.Index))
		}
	}

	if pg := cfg.Postgres; pg.Enabled {
		store, err := sqlstore.Open(ctx, pg.DSN, pg.Table)
		if err != nil {
			logger.WithError(err).Errorw("postgres publisher disabled", "table", pg.Table)
		} else {
			publishers = append(publishers, NewSQLPublisher(store))
		}
	}

	return NewFanout(logger, publishers...)
}
