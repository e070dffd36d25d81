// Package config loads runtime settings from YAML and turns them into the
// collaborators the sim package needs: an engine configuration, a zap logger
// and optional prometheus metrics.
//
// A minimal file:
//
//	engine:
//	  error_buffer_size: 2000
//	log:
//	  level: debug
//	  development: true
//	metrics:
//	  enabled: true
//	  namespace: robotics
//
// Missing sections keep the values from Default.
package config
