package product

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
)

// Encode writes p as a JSON object. A missing price is written as null.
func (p Product) Encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(p.ID)
	e.FieldStart("name")
	e.Str(p.Name)
	e.FieldStart("price")
	if p.Price.Valid {
		e.Num(jx.Num(p.Price.Decimal.StringFixed(2)))
	} else {
		e.Null()
	}
	e.FieldStart("category")
	e.Str(p.Category)
	if p.Description != "" {
		e.FieldStart("description")
		e.Str(p.Description)
	}
	e.FieldStart("image")
	p.Image.Encode(e)
	e.ObjEnd()
}

// Encode writes i as a JSON object.
func (i Image) Encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("thumbnail")
	e.Str(i.Thumbnail)
	e.FieldStart("mobile")
	e.Str(i.Mobile)
	e.FieldStart("tablet")
	e.Str(i.Tablet)
	e.FieldStart("desktop")
	e.Str(i.Desktop)
	e.ObjEnd()
}

// Decode reads p from a JSON object. Unknown fields are skipped.
func (p *Product) Decode(d *jx.Decoder) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id":
			p.ID, err = d.Str()
		case "name":
			p.Name, err = d.Str()
		case "price":
			p.Price, err = decodeNullDecimal(d)
		case "category":
			p.Category, err = d.Str()
		case "description":
			p.Description, err = d.Str()
		case "image":
			err = p.Image.Decode(d)
		default:
			err = d.Skip()
		}
		if err != nil {
			return errors.Wrapf(err, "decode field %q", key)
		}
		return nil
	})
}

// Decode reads i from a JSON object. Unknown fields are skipped.
func (i *Image) Decode(d *jx.Decoder) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "thumbnail":
			i.Thumbnail, err = d.Str()
		case "mobile":
			i.Mobile, err = d.Str()
		case "tablet":
			i.Tablet, err = d.Str()
		case "desktop":
			i.Desktop, err = d.Str()
		default:
			err = d.Skip()
		}
		return err
	})
}

// EncodeList writes products as a JSON array.
func EncodeList(e *jx.Encoder, products []Product) {
	e.ArrStart()
	for _, p := range products {
		p.Encode(e)
	}
	e.ArrEnd()
}

// DecodeList reads a JSON array of products.
func DecodeList(d *jx.Decoder) ([]Product, error) {
	products := []Product{}
	err := d.Arr(func(d *jx.Decoder) error {
		var p Product
		if err := p.Decode(d); err != nil {
			return err
		}
		products = append(products, p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return products, nil
}

func decodeNullDecimal(d *jx.Decoder) (decimal.NullDecimal, error) {
	switch d.Next() {
	case jx.Null:
		return decimal.NullDecimal{}, d.Null()
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return decimal.NullDecimal{}, err
		}
		v, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.NullDecimal{}, err
		}
		return decimal.NewNullDecimal(v), nil
	default:
		n, err := d.Num()
		if err != nil {
			return decimal.NullDecimal{}, err
		}
		v, err := decimal.NewFromString(n.String())
		if err != nil {
			return decimal.NullDecimal{}, err
		}
		return decimal.NewNullDecimal(v), nil
	}
}
