//go:build !ecs_nocheck

package ecs

// checkContracts enables the structural assertions. Build with -tags ecs_nocheck to drop them.
const checkContracts = true
