package keywords

// Rule tables for entity-like keyword detection. Kept as data, separate from
// the scoring algorithm, so they can be tested and extended independently.

// surnameRunes are common Chinese surname characters. A token of two or more
// runes starting with one of these is treated as a personal-name candidate.
var surnameRunes = runeSet("赵钱孙李周吴郑王冯陈褚卫蒋沈韩杨朱秦尤许何吕施张孔曹严华金魏陶姜戚谢邹喻柏章云苏潘葛范彭鲁韦马苗凤方俞任袁柳唐罗薛程羌黛傅皮齐康伍余元顾孟黄穆萧尹姚邵湛汪祁毛狄米贝明臧成戴谈宋茅庞熊纪舒屈项祝董梁")

// locativeRunes mark place-like tokens (administrative, street, venue and
// terrain suffixes).
var locativeRunes = runeSet("省市县区镇乡村街路巷桥楼馆店场院校园台站港湾城堡庄寺庙宫殿厅室山河湖海岛")

// temporalRunes mark time-unit tokens.
var temporalRunes = runeSet("年月日时分秒晨午晚夜春夏秋冬天周点")

// measureRunes mark quantity tokens (measure words).
var measureRunes = runeSet("个只条张位名件套间座层次回块句段幕")

// actionRunes is a small closed list of core verb characters. A token of two
// or more runes containing one of these is treated as an action/state token.
var actionRunes = runeSet("走跑跳坐站看听说笑哭吃喝来去进出拿打开关想爱恨")

func runeSet(s string) map[rune]struct{} {
	m := make(map[rune]struct{}, len(s))
	for _, r := range s {
		m[r] = struct{}{}
	}
	return m
}

// isNameLike reports whether token looks like a surname-prefixed name.
func isNameLike(token string) bool {
	runes := []rune(token)
	if len(runes) < 2 {
		return false
	}
	_, ok := surnameRunes[runes[0]]
	return ok
}

// isLocation reports whether token carries a locative suffix character.
func isLocation(token string) bool {
	return containsAny(token, locativeRunes)
}

// isTemporal reports whether token carries a time-unit character.
func isTemporal(token string) bool {
	return containsAny(token, temporalRunes)
}

// isQuantity reports whether token carries a measure-word character.
func isQuantity(token string) bool {
	return containsAny(token, measureRunes)
}

// isAction reports whether a token of two or more runes carries a core verb
// character.
func isAction(token string) bool {
	if len([]rune(token)) < 2 {
		return false
	}
	return containsAny(token, actionRunes)
}

func containsAny(s string, set map[rune]struct{}) bool {
	for _, r := range s {
		if _, ok := set[r]; ok {
			return true
		}
	}
	return false
}
