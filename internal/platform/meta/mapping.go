package meta

import (
	"fmt"
	"strings"

	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/domain/ads"
	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/platform/adprovider"
)

var objectiveMap = map[string]string{
	"awareness":     "OUTCOME_AWARENESS",
	"traffic":       "OUTCOME_TRAFFIC",
	"engagement":    "OUTCOME_ENGAGEMENT",
	"leads":         "OUTCOME_LEADS",
	"app promotion": "OUTCOME_APP_PROMOTION",
	"sales":         "OUTCOME_SALES",
}

// ErrUnknownObjective is returned for an objective outside the supported set.
var ErrUnknownObjective = fmt.Errorf("%w: unknown campaign objective", adprovider.ErrInvalidRequest)

// MapObjective translates a local objective label. Values already in the
// OUTCOME_* vocabulary pass through.
func MapObjective(label string) (string, error) {
	s := strings.TrimSpace(label)
	if v, ok := objectiveMap[strings.ToLower(s)]; ok {
		return v, nil
	}
	upper := strings.ToUpper(s)
	for _, v := range objectiveMap {
		if upper == v {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownObjective, label)
}

// SpecialAdCategories renders the selection as the array the API requires.
// The result is never nil.
func SpecialAdCategories(selection string) []string {
	out := []string{}
	for _, part := range strings.Split(selection, ",") {
		v := strings.ToUpper(strings.TrimSpace(part))
		if v == "" || v == "NONE" {
			continue
		}
		out = append(out, strings.ReplaceAll(v, " ", "_"))
	}
	return out
}

const defaultOptimizationGoal = "LINK_CLICKS"

var performanceGoalMap = map[string]string{
	"maximise reach of ads":                       "REACH",
	"maximise number of impression":               "IMPRESSIONS",
	"maximise ad recall lift":                     "AD_RECALL_LIFT",
	"maximise thruplay views":                     "THRUPLAY",
	"maximise 2-second continuous video plays":    "VIDEO_2_SEC_CONTINUOUS_VIEWS",
	"maximise number of landing page views":       "LANDING_PAGE_VIEWS",
	"maximise number of link clicks":              "LINK_CLICKS",
	"maximise daily unique reach":                 "DAILY_UNIQUE_REACH",
	"maximise number of conversations":            "CONVERSATIONS",
	"maximise number of instagram profile visits": "PROFILE_VISIT",
	"maximise number of calls":                    "CALLS",
	"maximise engagement with a post":             "POST_ENGAGEMENT",
	"maximise number of event responses":          "EVENT_RESPONSES",
	"maximise number of app events":               "APP_EVENTS",
	"maximise reminders set":                      "REMINDERS_SET",
	"maximise number of page likes":               "PAGE_LIKES",
	"maximise number of leads":                    "LEAD_GENERATION",
	"maximise number of conversion leads":         "CONVERSION_LEAD_RATE",
	"maximise number of leads through messaging":  "MESSAGING_PURCHASE_CONVERSION",
	"maximise number of app installs":             "APP_INSTALLS",
	"maximise value of conversions":               "MAXIMIZE_CONVERSION_VALUE",
}

// OptimizationGoal maps a performance-goal label to the API's optimization
// goal. Unknown, empty and "None" labels fall back to LINK_CLICKS.
func OptimizationGoal(label string) string {
	s := strings.TrimSpace(label)
	if v, ok := performanceGoalMap[strings.ToLower(s)]; ok {
		return v
	}
	upper := strings.ToUpper(s)
	for _, v := range performanceGoalMap {
		if upper == v {
			return v
		}
	}
	return defaultOptimizationGoal
}

func callToActionType(label string) string {
	return strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(label)), " ", "_")
}

var baseScopes = []string{
	"pages_show_list",
	"pages_read_engagement",
	"pages_manage_posts",
	"pages_read_user_content",
	"business_management",
	"email",
	"public_profile",
	"ads_management",
	"ads_read",
}

var instagramScopes = []string{
	"instagram_basic",
	"instagram_content_publish",
	"instagram_manage_insights",
}

// Scopes lists the permissions requested for platform.
func Scopes(platform ads.Platform) []string {
	out := append([]string(nil), baseScopes...)
	if platform == ads.PlatformInstagram {
		out = append(out, instagramScopes...)
	}
	return out
}
