// Package config loads and validates bucketry configuration.
//
// Configuration is merged from four sources in order of precedence, highest
// first: command line flags, environment variables with the BUCKETRY prefix,
// YAML config files (later files override earlier ones), built-in defaults.
//
// A minimal config file:
//
//	storage:
//	  region: eu-west-1
//	  endpoints:
//	    s3: {}
//	    s3-minio:
//	      endpoint_url: http://minio:9000
//	      endpoint_url_presigning: https://files.example.com
//	  bucket_auth: true
//
// Environment overrides follow the key path with dots replaced by
// underscores, e.g. BUCKETRY_STORAGE_REGION=us-west-2 or
// BUCKETRY_STORAGE_READ_ONLY=true.
//
// StorageConfig.Settings converts the loaded configuration into
// bucketry.Settings for the engine. Computed per-file settings cannot be
// expressed in config files; set them programmatically on the Settings value.
package config
