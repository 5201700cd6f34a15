/*
Package config defines the immutable run configuration of reachdig.

A [Config] is assembled exactly once: first from [Default], then overlaid by an
optional TOML file (see [LoadFileConfig] and [ApplyFileConfig]), and finally by
explicitly set command line flags. After [Config.Validate] succeeded the value
must not be modified anymore; batch workers receive deep copies from
[Config.Clone].

A minimal configuration file might look like:

	workers = 4
	http_codes = true
	dns_servers = ["9.9.9.9:53"]
	retest_interval = "12h"
	retention = "28d"
	db_backend = "sqlite"
*/
package config
