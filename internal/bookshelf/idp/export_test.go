package idp

import "time"

func SetKeyRefreshInterval(v *KeycloakVerifier, interval time.Duration) {
	v.refreshInterval = interval
}
