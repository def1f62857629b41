package mysql

import (
	"math"
	"time"
)

// decodeBinaryValue decodes one column of a Binary Protocol Resultset Row
// (spec §4.6). Unlike the text protocol, every value here is in a
// type-specific binary encoding rather than a string.
//
// https://dev.mysql.com/doc/internals/en/binary-protocol-value.html
func decodeBinaryValue(r *reader, col Column) Value {
	switch col.Type {
	case TypeTiny:
		v := r.int1()
		if col.Unsigned {
			return uint64Value(uint64(v))
		}
		return int64Value(int64(int8(v)))
	case TypeShort, TypeYear:
		v := r.int2()
		if col.Unsigned || col.Type == TypeYear {
			return uint64Value(uint64(v))
		}
		return int64Value(int64(int16(v)))
	case TypeInt24, TypeLong:
		v := r.int4()
		if col.Unsigned {
			return uint64Value(uint64(v))
		}
		return int64Value(int64(int32(v)))
	case TypeLongLong:
		v := r.int8()
		if col.Unsigned {
			return uint64Value(v)
		}
		return int64Value(int64(v))
	case TypeFloat:
		return float64Value(float64(math.Float32frombits(r.int4())))
	case TypeDouble:
		return float64Value(math.Float64frombits(r.int8()))
	case TypeNewDecimal, TypeDecimal:
		return decimalValue(r.stringN())
	case TypeDate:
		return dateValue(decodeBinaryDate(r))
	case TypeDateTime, TypeTimestamp:
		return dateTimeValue(decodeBinaryDate(r))
	case TypeTime:
		return timeValue(decodeBinaryTime(r))
	case TypeJSON:
		buf := r.bytesN()
		if r.err != nil {
			return nullValue()
		}
		v, err := new(jsonDecoder).decodeValue(buf)
		if err != nil {
			r.err = err
			return nullValue()
		}
		return jsonValue(v)
	case TypeVarchar, TypeVarString, TypeString, TypeEnum, TypeSet,
		TypeBlob, TypeTinyBlob, TypeMediumBlob, TypeLongBlob, TypeBit, TypeGeometry:
		b := r.bytesN()
		if col.Charset == charsetBinary {
			return bytesValue(b)
		}
		return stringValue(string(b))
	default:
		r.err = newProtocolError("decodeBinaryValue: unsupported column type %s", col.Type)
		return nullValue()
	}
}

// decodeBinaryDate decodes Protocol::MYSQL_TYPE_DATE /
// Protocol::MYSQL_TYPE_DATETIME / Protocol::MYSQL_TYPE_TIMESTAMP, which
// share a length-prefixed layout: 0 bytes (all-zero), 4 (date only), 7
// (+time), or 11 (+microseconds).
func decodeBinaryDate(r *reader) time.Time {
	n := r.int1()
	if r.err != nil || n == 0 {
		return time.Time{}
	}
	year := int(r.int2())
	month := time.Month(r.int1())
	day := int(r.int1())
	var hour, min, sec, micro int
	if n >= 7 {
		hour = int(r.int1())
		min = int(r.int1())
		sec = int(r.int1())
	}
	if n >= 11 {
		micro = int(r.int4())
	}
	if r.err != nil {
		return time.Time{}
	}
	return time.Date(year, month, day, hour, min, sec, micro*1000, time.UTC)
}

// decodeBinaryTime decodes Protocol::MYSQL_TYPE_TIME: a length-prefixed
// sign/days/h/m/s/microseconds layout (0, 8, or 12 bytes).
func decodeBinaryTime(r *reader) time.Duration {
	n := r.int1()
	if r.err != nil || n == 0 {
		return 0
	}
	sign := r.int1()
	days := r.int4()
	hour := r.int1()
	min := r.int1()
	sec := r.int1()
	var micro uint32
	if n >= 12 {
		micro = r.int4()
	}
	if r.err != nil {
		return 0
	}
	d := time.Duration(days)*24*time.Hour +
		time.Duration(hour)*time.Hour +
		time.Duration(min)*time.Minute +
		time.Duration(sec)*time.Second +
		time.Duration(micro)*time.Microsecond
	if sign != 0 {
		d = -d
	}
	return d
}

// paramType reports the wire type/unsigned-flag a parameter will be sent
// as, without encoding it — needed because COM_STMT_EXECUTE's parameter
// type array precedes all of the parameter values (spec §4.6).
func paramType(v Value) (typ ColumnType, unsigned bool) {
	switch v.Kind {
	case KindNull:
		return TypeNull, false
	case KindInt64:
		return TypeLongLong, false
	case KindUint64:
		return TypeLongLong, true
	case KindFloat64:
		return TypeDouble, false
	case KindDecimal:
		return TypeNewDecimal, false
	case KindBytes:
		return TypeBlob, false
	case KindDate:
		return TypeDate, false
	case KindDateTime:
		return TypeDateTime, false
	case KindTime:
		return TypeTime, false
	case KindJSON, KindString:
		return TypeVarString, false
	}
	return TypeNull, false
}

// writeBinaryParamValue writes one bound, non-null parameter's value
// bytes in COM_STMT_EXECUTE's binary row format.
func writeBinaryParamValue(w *writer, v Value) {
	switch v.Kind {
	case KindInt64:
		w.int8(uint64(v.Int64))
	case KindUint64:
		w.int8(v.Uint64)
	case KindFloat64:
		w.int8(math.Float64bits(v.Float64))
	case KindDecimal:
		w.stringN(v.Decimal.String())
	case KindBytes:
		w.bytesN(v.Bytes)
	case KindString:
		w.stringN(v.Str)
	case KindDate:
		encodeBinaryDate(w, v.Time, false)
	case KindDateTime:
		encodeBinaryDate(w, v.Time, true)
	case KindTime:
		encodeBinaryTime(w, v.Duration)
	case KindJSON:
		w.stringN(v.String())
	}
}

func encodeBinaryDate(w *writer, t time.Time, withTime bool) {
	if t.IsZero() {
		w.int1(0)
		return
	}
	micro := t.Nanosecond() / 1000
	switch {
	case !withTime:
		w.int1(4)
	case micro == 0:
		w.int1(7)
	default:
		w.int1(11)
	}
	w.int2(uint16(t.Year()))
	w.int1(uint8(t.Month()))
	w.int1(uint8(t.Day()))
	if !withTime {
		return
	}
	w.int1(uint8(t.Hour()))
	w.int1(uint8(t.Minute()))
	w.int1(uint8(t.Second()))
	if micro != 0 {
		w.int4(uint32(micro))
	}
}

func encodeBinaryTime(w *writer, d time.Duration) {
	if d == 0 {
		w.int1(0)
		return
	}
	sign := uint8(0)
	if d < 0 {
		sign = 1
		d = -d
	}
	days := d / (24 * time.Hour)
	d -= days * 24 * time.Hour
	hour := d / time.Hour
	d -= hour * time.Hour
	min := d / time.Minute
	d -= min * time.Minute
	sec := d / time.Second
	d -= sec * time.Second
	micro := d / time.Microsecond

	if micro == 0 {
		w.int1(8)
	} else {
		w.int1(12)
	}
	w.int1(sign)
	w.int4(uint32(days))
	w.int1(uint8(hour))
	w.int1(uint8(min))
	w.int1(uint8(sec))
	if micro != 0 {
		w.int4(uint32(micro))
	}
}
