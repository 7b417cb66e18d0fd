//go:build !debug

package config

const validationDefault = false
