package schema

import "strings"

// Default returns the compiled-in schema: every recognized key with its
// fallback value. Each call returns a fresh map.
func Default() ConfigMap {
	return ConfigMap{
		"API_HTTP_PORT":            Number(80),
		"API_HTTPS_PORT":           Number(443),
		"OVERRIDE_SSL_CHECK":       String("0"),
		"LOG_EXPRESS":              String("0"),
		"DEVICE_MONITOR_INTERVAL":  Number(5000),
		"BIND_ADDRESS":             String("127.0.0.1"),
		"ENCRYPTION_AT_REST":       String("1"),
		"PUSHBULLET_TOKEN":         String("TOKEN"),
		"DATABASE_HOST":            String("localhost"),
		"DATABASE_PORT":            Number(3306),
		"DATABASE_USER":            String("username"),
		"DATABASE_PASSWORD":        String("password"),
		"DATABASE_DATABASE":        String("database"),
		"MQTT_MANAGE_SERVER":       String("1"),
		"MQTT_HOST":                String("localhost"),
		"MQTT_USER":                String("mqtt"),
		"MQTT_PORT":                Number(8883),
		"MQTT_PASSWORD":            String("mqtt"),
		"MQTT_LOCAL_NETWORK_ONLY":  String("1"),
		"MQTT_TLS_METHOD":          String("TLSv1_2_method"),
		"MQTT_REJECT_UNAUTHORIZED": String("1"),
		"MQTT_PROTOCOL":            String("mqtts"),
	}
}

var secretMarkers = []string{"PASSWORD", "TOKEN", "SECRET"}

// IsSecret reports whether a key holds a credential that should not be
// echoed or printed in clear
func IsSecret(key string) bool {
	upper := strings.ToUpper(key)
	for _, m := range secretMarkers {
		if strings.Contains(upper, m) {
			return true
		}
	}
	return false
}
