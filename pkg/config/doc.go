// Package config loads, validates, watches and writes the rocketscience
// configuration.
//
// Values come from three layers, later ones winning:
//
//   - built-in defaults (Default)
//   - a YAML file, rocket.yaml by default
//   - ROCKET_* environment variables, with dots replaced by underscores
//     (ROCKET_API_BASE_URL, ROCKET_SYNC_COALESCE, ...)
//
// Example:
//
//	loader := config.NewLoader("rocket.yaml", log.Logger)
//	cfg, err := loader.Load()
//	if err != nil {
//		return err
//	}
//	_ = loader.Watch(ctx, func(cfg *config.Config) {
//		vm.ApplyFilter(ctx, cfg.Filter)
//	})
//
// A sample file:
//
//	api:
//	  base_url: https://api.spacexdata.com/v3
//	  timeout: 15s
//	store:
//	  path: rocketscience.db
//	sync:
//	  follow_cache: true
//	  coalesce: false
//	filter:
//	  years: ["2008", "2015"]
//	  descending: true
//	server:
//	  listen_address: 127.0.0.1:8080
package config
