package domain

import (
	"bytes"
	"encoding/json"
	"errors"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type RosterStatus string

const (
	RosterStatusPending  RosterStatus = "pending"
	RosterStatusApproved RosterStatus = "approved"
)

// RosterEntry 是结构化名单中的一项
// Date 为空表示在班次有效期内每周的这一天都排班；Status 为空视为已批准
// 名单在 JSON 和 BSON 中使用同样的字段名
type RosterEntry struct {
	EmployeeID       string       `json:"employeeId" bson:"employeeId"`
	Date             string       `json:"date,omitempty" bson:"date,omitempty"`
	AssignedPosition string       `json:"assignedPosition,omitempty" bson:"assignedPosition,omitempty"`
	Status           RosterStatus `json:"status,omitempty" bson:"status,omitempty"`
}

// Roster 是某一天的排班名单，有两种格式：
//  1. 旧格式：申请人 ID 的字符串数组
//  2. 新格式：RosterEntry 数组
//
// 格式只在解码时判断一次，之后通过 IsStructured 区分
type Roster struct {
	IDs     []string
	Entries []RosterEntry
}

func NewFlatRoster(ids ...string) Roster {
	return Roster{IDs: ids}
}

func NewStructuredRoster(entries ...RosterEntry) Roster {
	if entries == nil {
		entries = []RosterEntry{}
	}
	return Roster{Entries: entries}
}

func (r Roster) IsStructured() bool {
	return r.Entries != nil
}

func (r Roster) IsEmpty() bool {
	return len(r.IDs) == 0 && len(r.Entries) == 0
}

// elements 返回序列化时使用的数组
func (r Roster) elements() any {
	if r.IsStructured() {
		return r.Entries
	}
	if r.IDs == nil {
		return []string{}
	}
	return r.IDs
}

// assign 根据元素的格式设置名单，出现任意一个对象元素即视为新格式
func (r *Roster) assign(ids []string, entries []RosterEntry, structured bool) {
	if structured {
		r.Entries = entries
	} else {
		r.IDs = ids
	}
}

func (r Roster) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.elements())
}

func (r *Roster) UnmarshalJSON(data []byte) error {
	*r = Roster{}

	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.New("roster 必须是数组")
	}

	ids := make([]string, 0, len(raw))
	entries := make([]RosterEntry, 0, len(raw))
	structured := false

	for _, item := range raw {
		item = bytes.TrimSpace(item)
		if len(item) == 0 || bytes.Equal(item, []byte("null")) {
			continue
		}

		switch item[0] {
		case '"':
			var id string
			if err := json.Unmarshal(item, &id); err != nil {
				return err
			}
			ids = append(ids, id)
			// 混合格式时旧格式的 ID 视为无日期、已批准的项
			entries = append(entries, RosterEntry{EmployeeID: id})
		case '{':
			var entry RosterEntry
			if err := json.Unmarshal(item, &entry); err != nil {
				return err
			}
			structured = true
			entries = append(entries, entry)
		default:
			return errors.New("roster 中存在无法识别的元素")
		}
	}

	r.assign(ids, entries, structured)
	return nil
}

// MarshalBSONValue 将名单保存为普通数组，与 JSON 的格式一致
func (r Roster) MarshalBSONValue() (byte, []byte, error) {
	typ, data, err := bson.MarshalValue(r.elements())
	return byte(typ), data, err
}

func (r *Roster) UnmarshalBSONValue(typ byte, data []byte) error {
	*r = Roster{}

	switch bson.Type(typ) {
	case bson.TypeNull, bson.TypeUndefined:
		return nil
	case bson.TypeArray:
	default:
		return errors.New("roster 必须是数组")
	}

	values, err := bson.RawArray(data).Values()
	if err != nil {
		return err
	}

	ids := make([]string, 0, len(values))
	entries := make([]RosterEntry, 0, len(values))
	structured := false

	for _, v := range values {
		switch v.Type {
		case bson.TypeNull, bson.TypeUndefined:
			continue
		case bson.TypeString:
			id := v.StringValue()
			ids = append(ids, id)
			entries = append(entries, RosterEntry{EmployeeID: id})
		case bson.TypeEmbeddedDocument:
			var entry RosterEntry
			if err := v.Unmarshal(&entry); err != nil {
				return err
			}
			structured = true
			entries = append(entries, entry)
		default:
			return errors.New("roster 中存在无法识别的元素")
		}
	}

	r.assign(ids, entries, structured)
	return nil
}
