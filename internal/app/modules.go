package app

import (
	"github.com/vk/preflight/internal/registry"
	"github.com/vk/preflight/modules/envcheck"
	"github.com/vk/preflight/modules/filecheck"
	"github.com/vk/preflight/modules/httpcheck"
	"github.com/vk/preflight/modules/socketiocheck"
	"github.com/vk/preflight/modules/tcpcheck"
	"github.com/vk/preflight/modules/wscheck"
)

// coreModules is the default set of check modules compiled into the binary.
var coreModules = []registry.Module{
	&envcheck.Module{},
	&filecheck.Module{},
	&httpcheck.Module{},
	&socketiocheck.Module{},
	&tcpcheck.Module{},
	&wscheck.Module{},
}
