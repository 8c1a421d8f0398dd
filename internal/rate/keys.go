package rate

import "strings"

func loginEmailKey(email string) string {
	return "ual:" + strings.ToLower(email)
}

func loginIPKey(ip string) string {
	return "uali:" + ip
}

func refreshKey(userID string) string {
	return "uar:" + userID
}

func registerIPKey(ip string) string {
	return "uareg:" + ip
}
