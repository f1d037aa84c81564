package common

const (
	KEY_COMPANY_IDENTIFIERS = "company_identifiers:%s"
)

const (
	KEY_LOG_HOOK_SEND_ALERT = "send_alert"
)
