package models

import "time"

// Platform identifies a social network an event originates from or a post
// targets.
type Platform string

const (
	PlatformInstagram Platform = "instagram"
	PlatformFacebook  Platform = "facebook"
	PlatformTwitter   Platform = "twitter"
	PlatformLinkedIn  Platform = "linkedin"
	PlatformTikTok    Platform = "tiktok"
)

// EventType is the kind of inbound platform occurrence a trigger reacts to.
type EventType string

const (
	EventTypeNewComment  EventType = "new_comment"
	EventTypeNewMessage  EventType = "new_message"
	EventTypeMention     EventType = "mention"
	EventTypeNewFollower EventType = "new_follower"
	EventTypeReaction    EventType = "reaction"
)

// TriggerConfig configures a trigger node: which platform events start a run.
type TriggerConfig struct {
	Platform       Platform  `json:"platform"`
	EventType      EventType `json:"event_type"`
	Keywords       []string  `json:"keywords,omitempty"`
	FilterNegative bool      `json:"filter_negative"`
}

func (*TriggerConfig) ConfigType() NodeType { return NodeTypeTrigger }

// FilterCondition is the comparison operator of a filter node.
type FilterCondition string

const (
	ConditionContains    FilterCondition = "contains"
	ConditionNotContains FilterCondition = "not_contains"
	ConditionEquals      FilterCondition = "equals"
	ConditionNotEquals   FilterCondition = "not_equals"
	ConditionGreaterThan FilterCondition = "greater_than"
	ConditionLessThan    FilterCondition = "less_than"
)

// FilterConfig configures a filter node: compare a named event/context field
// against a literal value.
type FilterConfig struct {
	Field         string          `json:"field"`
	Condition     FilterCondition `json:"condition"`
	Value         string          `json:"value"`
	CaseSensitive bool            `json:"case_sensitive"`
}

func (*FilterConfig) ConfigType() NodeType { return NodeTypeFilter }

// SegmentType selects which audience slice an audience node matches.
type SegmentType string

const (
	SegmentAllFollowers SegmentType = "all_followers"
	SegmentNewFollowers SegmentType = "new_followers"
	SegmentEngaged      SegmentType = "engaged"
	SegmentInactive     SegmentType = "inactive"
	SegmentCustom       SegmentType = "custom"
)

// AudienceConfig configures an audience node.
type AudienceConfig struct {
	SegmentType    SegmentType `json:"segment_type"`
	MinEngagement  int         `json:"min_engagement"`
	IncludePrivate bool        `json:"include_private"`
	Location       string      `json:"location,omitempty"` // Only for custom segments
}

func (*AudienceConfig) ConfigType() NodeType { return NodeTypeAudience }

// ContentType is the kind of content a content node publishes.
type ContentType string

const (
	ContentTypeText  ContentType = "text"
	ContentTypeImage ContentType = "image"
	ContentTypeVideo ContentType = "video"
	ContentTypeLink  ContentType = "link"
)

// ContentConfig configures a content node: the action payload handed to the
// content publisher collaborator.
type ContentConfig struct {
	ContentType ContentType `json:"content_type"`
	Message     string      `json:"message"`
	MediaURL    string      `json:"media_url,omitempty"`
	LinkURL     string      `json:"link_url,omitempty"`
}

func (*ContentConfig) ConfigType() NodeType { return NodeTypeContent }

// ScheduleType selects how a schedule node resolves its fire time.
type ScheduleType string

const (
	ScheduleImmediate    ScheduleType = "immediate"
	ScheduleQueue        ScheduleType = "queue"
	ScheduleSpecificTime ScheduleType = "specific_time"
	ScheduleBestTime     ScheduleType = "best_time"
)

// Frequency governs recurrence of a schedule node.
type Frequency string

const (
	FrequencyOnce    Frequency = "once"
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// QueueSlot is a fixed local-time posting window.
type QueueSlot string

const (
	SlotMorning   QueueSlot = "morning"
	SlotMidday    QueueSlot = "midday"
	SlotAfternoon QueueSlot = "afternoon"
	SlotEvening   QueueSlot = "evening"
)

// ScheduleConfig configures a schedule node. TargetTime is only consulted for
// specific_time schedules and is supplied by the editor.
type ScheduleConfig struct {
	ScheduleType ScheduleType `json:"schedule_type"`
	Frequency    Frequency    `json:"frequency"`
	QueueSlot    QueueSlot    `json:"queue_slot,omitempty"`
	DelayMinutes int          `json:"delay_minutes"`
	TargetTime   *time.Time   `json:"target_time,omitempty"`
}

func (*ScheduleConfig) ConfigType() NodeType { return NodeTypeSchedule }

// MetricType is the measurement an analytics node reports on.
type MetricType string

const (
	MetricEngagement MetricType = "engagement"
	MetricReach      MetricType = "reach"
	MetricFollowers  MetricType = "followers"
	MetricClicks     MetricType = "clicks"
)

// AnalyticsConfig configures an analytics node: which metric the reporter
// collaborator collects and over which period.
type AnalyticsConfig struct {
	Metric     MetricType `json:"metric"`
	PeriodDays int        `json:"period_days"`
	Target     string     `json:"target,omitempty"`
}

func (*AnalyticsConfig) ConfigType() NodeType { return NodeTypeAnalytics }
