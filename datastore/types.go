package datastore

import (
	"github.com/gurbos/tcc/encode"
)

// Data is a row of the datas table.
type Data struct {
	ID        int64 `gorm:"column:id;primaryKey;autoIncrement:false"`
	Ot        int64 `gorm:"column:ot"`
	Alias     int64 `gorm:"column:alias"`
	Setcode   int64 `gorm:"column:setcode"`
	Type      int64 `gorm:"column:type"`
	Atk       int64 `gorm:"column:atk"`
	Def       int64 `gorm:"column:def"`
	Level     int64 `gorm:"column:level"`
	Race      int64 `gorm:"column:race"`
	Attribute int64 `gorm:"column:attribute"`
	Category  int64 `gorm:"column:category"`
}

func (Data) TableName() string { return "datas" }

// Text is a row of the texts table.
type Text struct {
	ID    int64  `gorm:"column:id;primaryKey;autoIncrement:false"`
	Name  string `gorm:"column:name"`
	Desc  string `gorm:"column:desc"`
	Str1  string `gorm:"column:str1"`
	Str2  string `gorm:"column:str2"`
	Str3  string `gorm:"column:str3"`
	Str4  string `gorm:"column:str4"`
	Str5  string `gorm:"column:str5"`
	Str6  string `gorm:"column:str6"`
	Str7  string `gorm:"column:str7"`
	Str8  string `gorm:"column:str8"`
	Str9  string `gorm:"column:str9"`
	Str10 string `gorm:"column:str10"`
	Str11 string `gorm:"column:str11"`
	Str12 string `gorm:"column:str12"`
	Str13 string `gorm:"column:str13"`
	Str14 string `gorm:"column:str14"`
	Str15 string `gorm:"column:str15"`
	Str16 string `gorm:"column:str16"`
}

func (Text) TableName() string { return "texts" }

// Setcode is a row of the setcodes table naming an archetype.
type Setcode struct {
	OfficialCode int64  `gorm:"column:officialcode"`
	BetaCode     int64  `gorm:"column:betacode"`
	Name         string `gorm:"column:name"`
	CardID       int64  `gorm:"column:cardid"`
}

func (Setcode) TableName() string { return "setcodes" }

func (t *Text) strs() [encode.StringSlots]*string {
	return [encode.StringSlots]*string{
		&t.Str1, &t.Str2, &t.Str3, &t.Str4, &t.Str5, &t.Str6, &t.Str7, &t.Str8,
		&t.Str9, &t.Str10, &t.Str11, &t.Str12, &t.Str13, &t.Str14, &t.Str15, &t.Str16,
	}
}

func rows(r encode.Record) (Data, Text) {
	d := Data(r.Data)
	t := Text{ID: r.Text.ID, Name: r.Text.Name, Desc: r.Text.Desc}
	for i, p := range t.strs() {
		*p = r.Text.Strings[i]
	}
	return d, t
}

func record(d Data, t Text) encode.Record {
	r := encode.Record{
		Data: encode.Data(d),
		Text: encode.Text{ID: t.ID, Name: t.Name, Desc: t.Desc},
	}
	for i, p := range t.strs() {
		r.Text.Strings[i] = *p
	}
	return r
}
