package ethmodel

// EventRecord is the row shape stored in and returned from the event
// store. It is immutable after insert; Version is fixed at 0 and
// retained only for compatibility with a generic optimistic-locking
// scheme, never incremented by this service.
type EventRecord struct {
	ID                uint64    `json:"id" gorm:"column:id;primaryKey"`
	Version           uint64    `json:"version" gorm:"column:version"`
	CreateEpochMillis int64     `json:"create_epoch_millis" gorm:"column:create_epoch_millis"`
	UpdateEpochMillis int64     `json:"update_epoch_millis" gorm:"column:update_epoch_millis"`
	Data              EventData `json:"data" gorm:"column:data;type:jsonb"`
}

// TableName pins the GORM model to the spec-mandated table name.
func (EventRecord) TableName() string {
	return "ETH_EVENT"
}
