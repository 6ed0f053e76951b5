package domain

// JoinRequest: payload join_room.
type JoinRequest struct {
	PerformanceID string `json:"performanceId"`
	Username      string `json:"username"`
	UserType      Role   `json:"userType"`
}

// UnmarshalJSON нестрогий: performanceId 42 становится комнатой "42", а не ошибкой.
func (j *JoinRequest) UnmarshalJSON(data []byte) error {
	obj := objectFields(data)
	*j = JoinRequest{
		PerformanceID: looseString(obj["performanceId"]),
		Username:      looseString(obj["username"]),
		UserType:      Role(looseString(obj["userType"])),
	}
	return nil
}
