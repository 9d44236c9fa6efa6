//go:build ecs_nocheck

package ecs

const checkContracts = false
