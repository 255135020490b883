package models

// FieldType is the declared type of a config field, matching the widget set
// the external editor renders.
type FieldType string

const (
	FieldTypeText    FieldType = "text"
	FieldTypeSelect  FieldType = "select"
	FieldTypeBoolean FieldType = "boolean"
	FieldTypeNumber  FieldType = "number"
	FieldTypeSet     FieldType = "set" // string-set, e.g. trigger keywords
)

// FieldSpec declares one config field: its type, whether it is required, and
// the allowed values for selects.
type FieldSpec struct {
	Name     string    `json:"name"`
	Type     FieldType `json:"type"`
	Required bool      `json:"required"`
	Options  []string  `json:"options,omitempty"`
	Min      *float64  `json:"min,omitempty"`
}

// ConfigSchema is the full field list for one node type. The editor and the
// validator both consult it, so what the form offers and what the engine
// accepts cannot drift apart.
type ConfigSchema struct {
	NodeType NodeType    `json:"node_type"`
	Fields   []FieldSpec `json:"fields"`
}

func minZero() *float64 {
	zero := 0.0

	return &zero
}

var configSchemas = map[NodeType]ConfigSchema{
	NodeTypeTrigger: {
		NodeType: NodeTypeTrigger,
		Fields: []FieldSpec{
			{Name: "platform", Type: FieldTypeSelect, Required: true, Options: platformOptions()},
			{Name: "event_type", Type: FieldTypeSelect, Required: true, Options: eventTypeOptions()},
			{Name: "keywords", Type: FieldTypeSet},
			{Name: "filter_negative", Type: FieldTypeBoolean},
		},
	},
	NodeTypeFilter: {
		NodeType: NodeTypeFilter,
		Fields: []FieldSpec{
			{Name: "field", Type: FieldTypeText, Required: true},
			{Name: "condition", Type: FieldTypeSelect, Required: true, Options: conditionOptions()},
			{Name: "value", Type: FieldTypeText, Required: true},
			{Name: "case_sensitive", Type: FieldTypeBoolean},
		},
	},
	NodeTypeAudience: {
		NodeType: NodeTypeAudience,
		Fields: []FieldSpec{
			{Name: "segment_type", Type: FieldTypeSelect, Required: true, Options: segmentOptions()},
			{Name: "min_engagement", Type: FieldTypeNumber, Min: minZero()},
			{Name: "include_private", Type: FieldTypeBoolean},
			{Name: "location", Type: FieldTypeText},
		},
	},
	NodeTypeContent: {
		NodeType: NodeTypeContent,
		Fields: []FieldSpec{
			{Name: "content_type", Type: FieldTypeSelect, Required: true, Options: contentTypeOptions()},
			{Name: "message", Type: FieldTypeText, Required: true},
			{Name: "media_url", Type: FieldTypeText},
			{Name: "link_url", Type: FieldTypeText},
		},
	},
	NodeTypeSchedule: {
		NodeType: NodeTypeSchedule,
		Fields: []FieldSpec{
			{Name: "schedule_type", Type: FieldTypeSelect, Required: true, Options: scheduleTypeOptions()},
			{Name: "frequency", Type: FieldTypeSelect, Required: true, Options: frequencyOptions()},
			{Name: "queue_slot", Type: FieldTypeSelect, Options: queueSlotOptions()},
			{Name: "delay_minutes", Type: FieldTypeNumber, Min: minZero()},
		},
	},
	NodeTypeAnalytics: {
		NodeType: NodeTypeAnalytics,
		Fields: []FieldSpec{
			{Name: "metric", Type: FieldTypeSelect, Required: true, Options: metricOptions()},
			{Name: "period_days", Type: FieldTypeNumber, Min: minZero()},
			{Name: "target", Type: FieldTypeText},
		},
	},
}

// SchemaFor returns the config schema for a node type. The second return is
// false for unknown types.
func SchemaFor(t NodeType) (ConfigSchema, bool) {
	schema, ok := configSchemas[t]

	return schema, ok
}

// AllSchemas returns the schema registry in NodeTypes() order, for the editor
// API.
func AllSchemas() []ConfigSchema {
	all := make([]ConfigSchema, 0, len(configSchemas))

	for _, t := range NodeTypes() {
		all = append(all, configSchemas[t])
	}

	return all
}

func platformOptions() []string {
	return []string{
		string(PlatformInstagram),
		string(PlatformFacebook),
		string(PlatformTwitter),
		string(PlatformLinkedIn),
		string(PlatformTikTok),
	}
}

func eventTypeOptions() []string {
	return []string{
		string(EventTypeNewComment),
		string(EventTypeNewMessage),
		string(EventTypeMention),
		string(EventTypeNewFollower),
		string(EventTypeReaction),
	}
}

func conditionOptions() []string {
	return []string{
		string(ConditionContains),
		string(ConditionNotContains),
		string(ConditionEquals),
		string(ConditionNotEquals),
		string(ConditionGreaterThan),
		string(ConditionLessThan),
	}
}

func segmentOptions() []string {
	return []string{
		string(SegmentAllFollowers),
		string(SegmentNewFollowers),
		string(SegmentEngaged),
		string(SegmentInactive),
		string(SegmentCustom),
	}
}

func contentTypeOptions() []string {
	return []string{
		string(ContentTypeText),
		string(ContentTypeImage),
		string(ContentTypeVideo),
		string(ContentTypeLink),
	}
}

func scheduleTypeOptions() []string {
	return []string{
		string(ScheduleImmediate),
		string(ScheduleQueue),
		string(ScheduleSpecificTime),
		string(ScheduleBestTime),
	}
}

func frequencyOptions() []string {
	return []string{
		string(FrequencyOnce),
		string(FrequencyDaily),
		string(FrequencyWeekly),
		string(FrequencyMonthly),
	}
}

func queueSlotOptions() []string {
	return []string{
		string(SlotMorning),
		string(SlotMidday),
		string(SlotAfternoon),
		string(SlotEvening),
	}
}

func metricOptions() []string {
	return []string{
		string(MetricEngagement),
		string(MetricReach),
		string(MetricFollowers),
		string(MetricClicks),
	}
}
