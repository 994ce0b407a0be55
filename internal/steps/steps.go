// Package steps contains the concrete provisioning steps and the two plan
// builders (full install and add-site). Every step talks to the host only
// through the context's runner and filesystem, so all of them work unchanged
// against the local machine, an SSH target, or the test mock.
package steps

import (
	_ "embed"
)

//go:embed templates/vhost.conf.tmpl
var vhostTemplate string

//go:embed templates/wp-config.php.tmpl
var wpConfigTemplate string
