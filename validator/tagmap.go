package validator

var tagMap = map[string]string{
	"required": "required",
	"min":      "too_small",
	"max":      "too_large",
	"gte":      "too_small_or_equal",
	"lte":      "too_large_or_equal",
	"hostname": "invalid_hostname",
	"ip":       "invalid_ip",
	"url":      "invalid_url",
	"http_url": "invalid_http_url",
	"origin":   "invalid_origin",
	"dive":     "invalid_item",
	"oneof":    "invalid_choice",
	"excludes": "should_not_contain",
}

func mapTagToCode(tag string) string {
	if code, ok := tagMap[tag]; ok {
		return code
	}
	return "invalid"
}
