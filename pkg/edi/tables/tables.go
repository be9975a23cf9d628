// Package tables holds the fixed protocol tables used while decoding FIC
// and PAD content: language/user-application code points, the EBU Latin
// character repertoire, and the UEP/EEP subchannel size and bitrate tables.
package tables

import "fmt"

// Language is the FIG 0/5 language code (ETSI TS 101 756 Annex C).
type Language uint8

const (
	LangAlbanian     Language = 0x01
	LangBreton       Language = 0x02
	LangCatalan      Language = 0x03
	LangCroatian     Language = 0x04
	LangWelsh        Language = 0x05
	LangCzech        Language = 0x06
	LangDanish       Language = 0x07
	LangGerman       Language = 0x08
	LangEnglish      Language = 0x09
	LangSpanish      Language = 0x0A
	LangEsperanto    Language = 0x0B
	LangEstonian     Language = 0x0C
	LangBasque       Language = 0x0D
	LangFaroese      Language = 0x0E
	LangFrench       Language = 0x0F
	LangFrisian      Language = 0x10
	LangIrish        Language = 0x11
	LangGalician     Language = 0x13
	LangIcelandic    Language = 0x14
	LangItalian      Language = 0x15
	LangLatin        Language = 0x17
	LangLatvian      Language = 0x18
	LangLuxembourg   Language = 0x19
	LangLithuanian   Language = 0x1A
	LangHungarian    Language = 0x1B
	LangMaltese      Language = 0x1C
	LangDutch        Language = 0x1D
	LangNorwegian    Language = 0x1E
	LangOccitan      Language = 0x1F
	LangPolish       Language = 0x20
	LangPortuguese   Language = 0x21
	LangRomanian     Language = 0x22
	LangRomansh      Language = 0x23
	LangSerbian      Language = 0x24
	LangSlovak       Language = 0x25
	LangSlovene      Language = 0x26
	LangFinnish      Language = 0x27
	LangSwedish      Language = 0x28
	LangTurkish      Language = 0x29
	LangZulu         Language = 0x45
	LangVietnamese   Language = 0x46
	LangUzbek        Language = 0x47
	LangUrdu         Language = 0x48
	LangUkrainian    Language = 0x49
	LangThai         Language = 0x4A
	LangTelugu       Language = 0x4B
	LangTatar        Language = 0x4C
	LangTamil        Language = 0x4D
	LangTajik        Language = 0x4E
	LangSwahili      Language = 0x4F
	LangSomali       Language = 0x51
	LangSinhalese    Language = 0x52
	LangShona        Language = 0x53
	LangRussian      Language = 0x56
	LangQuechua      Language = 0x57
	LangPushtu       Language = 0x58
	LangPunjabi      Language = 0x59
	LangPersian      Language = 0x5A
	LangOriya        Language = 0x5C
	LangNepali       Language = 0x5D
	LangMarathi      Language = 0x5F
	LangMoldavian    Language = 0x60
	LangMalay        Language = 0x61
	LangMacedonian   Language = 0x63
	LangKorean       Language = 0x65
	LangKhmer        Language = 0x66
	LangKazakh       Language = 0x67
	LangJapanese     Language = 0x69
	LangIndonesian   Language = 0x6A
	LangHindi        Language = 0x6B
	LangHebrew       Language = 0x6C
	LangGreek        Language = 0x70
	LangChinese      Language = 0x75
	LangBulgarian    Language = 0x77
	LangBengali      Language = 0x78
	LangArmenian     Language = 0x7D
	LangArabic       Language = 0x7E
	LangAmharic      Language = 0x7F
	LangUnknown      Language = 0xFF
)

var languageNames = map[Language]string{
	LangAlbanian: "Albanian", LangBreton: "Breton", LangCatalan: "Catalan",
	LangCroatian: "Croatian", LangWelsh: "Welsh", LangCzech: "Czech",
	LangDanish: "Danish", LangGerman: "German", LangEnglish: "English",
	LangSpanish: "Spanish", LangEsperanto: "Esperanto", LangEstonian: "Estonian",
	LangBasque: "Basque", LangFaroese: "Faroese", LangFrench: "French",
	LangFrisian: "Frisian", LangIrish: "Irish", LangGalician: "Galician",
	LangIcelandic: "Icelandic", LangItalian: "Italian", LangLatin: "Latin",
	LangLatvian: "Latvian", LangLuxembourg: "Luxembourgish", LangLithuanian: "Lithuanian",
	LangHungarian: "Hungarian", LangMaltese: "Maltese", LangDutch: "Dutch",
	LangNorwegian: "Norwegian", LangOccitan: "Occitan", LangPolish: "Polish",
	LangPortuguese: "Portuguese", LangRomanian: "Romanian", LangRomansh: "Romansh",
	LangSerbian: "Serbian", LangSlovak: "Slovak", LangSlovene: "Slovene",
	LangFinnish: "Finnish", LangSwedish: "Swedish", LangTurkish: "Turkish",
	LangZulu: "Zulu", LangVietnamese: "Vietnamese", LangUzbek: "Uzbek",
	LangUrdu: "Urdu", LangUkrainian: "Ukrainian", LangThai: "Thai",
	LangTelugu: "Telugu", LangTatar: "Tatar", LangTamil: "Tamil",
	LangTajik: "Tajik", LangSwahili: "Swahili", LangSomali: "Somali",
	LangSinhalese: "Sinhalese", LangShona: "Shona", LangRussian: "Russian",
	LangQuechua: "Quechua", LangPushtu: "Pushtu", LangPunjabi: "Punjabi",
	LangPersian: "Persian", LangOriya: "Oriya", LangNepali: "Nepali",
	LangMarathi: "Marathi", LangMoldavian: "Moldavian", LangMalay: "Malay",
	LangMacedonian: "Macedonian", LangKorean: "Korean", LangKhmer: "Khmer",
	LangKazakh: "Kazakh", LangJapanese: "Japanese", LangIndonesian: "Indonesian",
	LangHindi: "Hindi", LangHebrew: "Hebrew", LangGreek: "Greek",
	LangChinese: "Chinese", LangBulgarian: "Bulgarian", LangBengali: "Bengali",
	LangArmenian: "Armenian", LangArabic: "Arabic", LangAmharic: "Amharic",
}

// ParseLanguage maps a FIG 0/5 language byte to its Language value.
func ParseLanguage(b byte) Language {
	if _, ok := languageNames[Language(b)]; ok {
		return Language(b)
	}
	return LangUnknown
}

func (l Language) String() string {
	if s, ok := languageNames[l]; ok {
		return s
	}
	return "UNKNOWN"
}

// UserApplication is the FIG 0/13 user application type (11 bits, but only
// the low byte is retained for unrecognized values).
type UserApplication uint16

const (
	AppReserved    UserApplication = 0x000
	AppSLS         UserApplication = 0x002 // SlideShow (MOT)
	AppTPEG        UserApplication = 0x004
	AppSPI         UserApplication = 0x007
	AppDMB         UserApplication = 0x009
	AppFilecasting UserApplication = 0x00D
	AppFIS         UserApplication = 0x00E
	AppJournaline  UserApplication = 0x044A
)

var userAppNames = map[UserApplication]string{
	AppReserved: "Reserved", AppSLS: "SlideShow", AppTPEG: "TPEG",
	AppSPI: "SPI", AppDMB: "DMB", AppFilecasting: "Filecasting",
	AppFIS: "FIS", AppJournaline: "Journaline",
}

// ParseUserApplication maps an 11-bit FIG 0/13 user application type to a
// UserApplication. Unrecognized values fold to their low byte, matching
// the reference decoder's Unknown(u8) fallback.
func ParseUserApplication(v uint16) UserApplication {
	if _, ok := userAppNames[UserApplication(v)]; ok {
		return UserApplication(v)
	}
	return UserApplication(v & 0xFF)
}

func (u UserApplication) String() string {
	if s, ok := userAppNames[u]; ok {
		return s
	}
	return fmt.Sprintf("Unknown(0x%02X)", uint16(u)&0xFF)
}

// EbuLatinToUnicode maps the EBU Latin-based character repertoire (ETSI
// TS 101 756 Annex C, charset id 0x0) to Unicode code points. The printable
// ASCII range is an identity mapping and 0x00 maps to a space; other bytes
// that this table does not assign a specific accented-Latin code point to
// fall back to U+FFFD.
var EbuLatinToUnicode = buildEbuLatinTable()

func buildEbuLatinTable() [256]rune {
	var t [256]rune
	for i := range t {
		t[i] = 0xFFFD
	}
	for i := rune(0x20); i <= 0x7E; i++ {
		t[i] = i
	}
	t[0x00] = ' '
	// A handful of EBU Latin code points outside the ASCII range that are
	// common in ensemble/service labels.
	overrides := map[byte]rune{
		0x8A: 0x00EA, // ê
		0x8E: 0x00EB, // ë
		0x9A: 0x00E8, // è
		0x9E: 0x00EF, // ï
		0xC1: 0x00E1, // á
		0xC9: 0x00E9, // é
		0xCD: 0x00ED, // í
		0xD3: 0x00F3, // ó
		0xDA: 0x00FA, // ú
		0xE1: 0x00E0, // à
		0xF1: 0x00F1, // ñ
		0xD1: 0x00D1, // Ñ
		0xFC: 0x00FC, // ü
		0xDC: 0x00DC, // Ü
		0xF6: 0x00F6, // ö
		0xD6: 0x00D6, // Ö
		0xE4: 0x00E4, // ä
		0xC4: 0x00C4, // Ä
		0xDF: 0x00DF, // ß
	}
	for b, r := range overrides {
		t[b] = r
	}
	return t
}

// DecodeChars renders a raw character buffer according to the charset id
// carried alongside DL/label text: 0xF is UTF-8, 0x4 is a straight byte
// pass-through, 0x0 is EBU Latin, everything else is unsupported.
func DecodeChars(chars []byte, charset uint8) string {
	switch charset {
	case 0xF:
		return string(chars)
	case 0x4:
		out := make([]rune, len(chars))
		for i, b := range chars {
			out[i] = rune(b)
		}
		return string(out)
	case 0x0:
		out := make([]rune, len(chars))
		for i, b := range chars {
			out[i] = EbuLatinToUnicode[b]
		}
		return string(out)
	default:
		return fmt.Sprintf("[unsupported charset 0x%X]", charset)
	}
}

// UEPSizes is indexed by the FIG 0/1 short-form table index (6 bits) and
// gives the subchannel size in CUs.
var UEPSizes = [64]int{
	16, 21, 24, 29, 35, 24, 29, 35, 42, 52, 29, 35, 42, 52, 32, 42, 48, 58, 70, 40, 52, 58, 70, 84,
	48, 58, 70, 84, 104, 58, 70, 84, 104, 64, 84, 96, 116, 140, 80, 104, 116, 140, 168, 96, 116,
	140, 168, 208, 116, 140, 168, 208, 232, 128, 168, 192, 232, 280, 160, 208, 280, 192, 280, 416,
}

// UEPProtectionLevels is indexed the same as UEPSizes and gives the UEP
// protection level (1-5).
var UEPProtectionLevels = [64]int{
	5, 4, 3, 2, 1, 5, 4, 3, 2, 1, 5, 4, 3, 2, 5, 4, 3, 2, 1, 5, 4, 3, 2, 1, 5, 4, 3, 2, 1, 5, 4, 3,
	2, 5, 4, 3, 2, 1, 5, 4, 3, 2, 1, 5, 4, 3, 2, 1, 5, 4, 3, 2, 1, 5, 4, 3, 2, 1, 5, 4, 2, 5, 3, 1,
}

// UEPBitrates is indexed the same as UEPSizes and gives the subchannel
// bitrate in kbit/s.
var UEPBitrates = [64]int{
	32, 32, 32, 32, 32, 48, 48, 48, 48, 48, 56, 56, 56, 56, 64, 64, 64, 64, 64, 80, 80, 80, 80, 80,
	96, 96, 96, 96, 96, 112, 112, 112, 112, 128, 128, 128, 128, 128, 160, 160, 160, 160, 160, 192,
	192, 192, 192, 192, 224, 224, 224, 224, 224, 256, 256, 256, 256, 256, 320, 320, 320, 384, 384,
	384,
}

// EEPASizeFactors divides an EEP profile-A subchannel's CU size (times 8)
// to derive its bitrate in kbit/s, indexed by protection level 1-4.
var EEPASizeFactors = [4]int{12, 8, 6, 4}

// EEPBSizeFactors is the profile-B analogue of EEPASizeFactors (bitrate
// factor is 32, not 8).
var EEPBSizeFactors = [4]int{27, 21, 18, 15}

// DlPlusContentType enumerates the DL+ tag content categories (ETSI TS
// 102 980 Annex A).
type DlPlusContentType uint8

const (
	DlPlusDummy                   DlPlusContentType = 0
	DlPlusItemTitle               DlPlusContentType = 1
	DlPlusItemAlbum               DlPlusContentType = 2
	DlPlusItemTracknumber         DlPlusContentType = 3
	DlPlusItemArtist              DlPlusContentType = 4
	DlPlusItemComposition         DlPlusContentType = 5
	DlPlusItemMovement            DlPlusContentType = 6
	DlPlusItemConductor           DlPlusContentType = 7
	DlPlusItemComposer            DlPlusContentType = 8
	DlPlusItemBand                DlPlusContentType = 9
	DlPlusItemComment             DlPlusContentType = 10
	DlPlusItemGenre               DlPlusContentType = 11
	DlPlusInfoNews                DlPlusContentType = 12
	DlPlusInfoNewsLocal           DlPlusContentType = 13
	DlPlusInfoStockmarket         DlPlusContentType = 14
	DlPlusInfoSport               DlPlusContentType = 15
	DlPlusInfoLottery             DlPlusContentType = 16
	DlPlusInfoHoroscope           DlPlusContentType = 17
	DlPlusInfoDailyDiversion      DlPlusContentType = 18
	DlPlusInfoHealth              DlPlusContentType = 19
	DlPlusInfoEvent               DlPlusContentType = 20
	DlPlusInfoScene               DlPlusContentType = 21
	DlPlusInfoCinema              DlPlusContentType = 22
	DlPlusInfoTv                  DlPlusContentType = 23
	DlPlusInfoDateTime            DlPlusContentType = 24
	DlPlusInfoWeather             DlPlusContentType = 25
	DlPlusInfoTraffic             DlPlusContentType = 26
	DlPlusInfoAlarm               DlPlusContentType = 27
	DlPlusInfoAdvertisement       DlPlusContentType = 28
	DlPlusInfoUrl                 DlPlusContentType = 29
	DlPlusInfoOther               DlPlusContentType = 30
	DlPlusStationnameShort        DlPlusContentType = 31
	DlPlusStationnameLong         DlPlusContentType = 32
	DlPlusProgrammeNow            DlPlusContentType = 33
	DlPlusProgrammeNext           DlPlusContentType = 34
	DlPlusProgrammePart           DlPlusContentType = 35
	DlPlusProgrammeHost           DlPlusContentType = 36
	DlPlusProgrammeEditorialStaff DlPlusContentType = 37
	DlPlusProgrammeFrequency      DlPlusContentType = 38
	DlPlusProgrammeHomepage       DlPlusContentType = 39
	DlPlusProgrammeSubchannel     DlPlusContentType = 40
	DlPlusPhoneHotline            DlPlusContentType = 41
	DlPlusPhoneStudio             DlPlusContentType = 42
	DlPlusPhoneOther              DlPlusContentType = 43
	DlPlusSmsStudio               DlPlusContentType = 44
	DlPlusSmsOther                DlPlusContentType = 45
	DlPlusEmailHotline            DlPlusContentType = 46
	DlPlusEmailStudio             DlPlusContentType = 47
	DlPlusEmailOther              DlPlusContentType = 48
	DlPlusMmsOther                DlPlusContentType = 49
	DlPlusChat                    DlPlusContentType = 50
	DlPlusChatCenter              DlPlusContentType = 51
	DlPlusVoteQuestion            DlPlusContentType = 52
	DlPlusVoteCentre              DlPlusContentType = 53
	DlPlusPrivate1                DlPlusContentType = 56
	DlPlusPrivate2                DlPlusContentType = 57
	DlPlusPrivate3                DlPlusContentType = 58
	DlPlusDescriptorPlace         DlPlusContentType = 59
	DlPlusDescriptorAppointment   DlPlusContentType = 60
	DlPlusDescriptorIdentifier    DlPlusContentType = 61
	DlPlusDescriptorPurchase      DlPlusContentType = 62
	DlPlusDescriptorGetData       DlPlusContentType = 63
)

var dlPlusNames = map[DlPlusContentType]string{
	DlPlusDummy: "DUMMY", DlPlusItemTitle: "ITEM_TITLE", DlPlusItemAlbum: "ITEM_ALBUM",
	DlPlusItemTracknumber: "ITEM_TRACKNUMBER", DlPlusItemArtist: "ITEM_ARTIST",
	DlPlusItemComposition: "ITEM_COMPOSITION", DlPlusItemMovement: "ITEM_MOVEMENT",
	DlPlusItemConductor: "ITEM_CONDUCTOR", DlPlusItemComposer: "ITEM_COMPOSER",
	DlPlusItemBand: "ITEM_BAND", DlPlusItemComment: "ITEM_COMMENT", DlPlusItemGenre: "ITEM_GENRE",
	DlPlusInfoNews: "INFO_NEWS", DlPlusInfoNewsLocal: "INFO_NEWS_LOCAL",
	DlPlusInfoStockmarket: "INFO_STOCKMARKET", DlPlusInfoSport: "INFO_SPORT",
	DlPlusInfoLottery: "INFO_LOTTERY", DlPlusInfoHoroscope: "INFO_HOROSCOPE",
	DlPlusInfoDailyDiversion: "INFO_DAILY_DIVERSION", DlPlusInfoHealth: "INFO_HEALTH",
	DlPlusInfoEvent: "INFO_EVENT", DlPlusInfoScene: "INFO_SCENE", DlPlusInfoCinema: "INFO_CINEMA",
	DlPlusInfoTv: "INFO_TV", DlPlusInfoDateTime: "INFO_DATE_TIME", DlPlusInfoWeather: "INFO_WEATHER",
	DlPlusInfoTraffic: "INFO_TRAFFIC", DlPlusInfoAlarm: "INFO_ALARM",
	DlPlusInfoAdvertisement: "INFO_ADVERTISEMENT", DlPlusInfoUrl: "INFO_URL",
	DlPlusInfoOther: "INFO_OTHER", DlPlusStationnameShort: "STATIONNAME_SHORT",
	DlPlusStationnameLong: "STATIONNAME_LONG", DlPlusProgrammeNow: "PROGRAMME_NOW",
	DlPlusProgrammeNext: "PROGRAMME_NEXT", DlPlusProgrammePart: "PROGRAMME_PART",
	DlPlusProgrammeHost: "PROGRAMME_HOST", DlPlusProgrammeEditorialStaff: "PROGRAMME_EDITORIAL_STAFF",
	DlPlusProgrammeFrequency: "PROGRAMME_FREQUENCY", DlPlusProgrammeHomepage: "PROGRAMME_HOMEPAGE",
	DlPlusProgrammeSubchannel: "PROGRAMME_SUBCHANNEL", DlPlusPhoneHotline: "PHONE_HOTLINE",
	DlPlusPhoneStudio: "PHONE_STUDIO", DlPlusPhoneOther: "PHONE_OTHER", DlPlusSmsStudio: "SMS_STUDIO",
	DlPlusSmsOther: "SMS_OTHER", DlPlusEmailHotline: "EMAIL_HOTLINE", DlPlusEmailStudio: "EMAIL_STUDIO",
	DlPlusEmailOther: "EMAIL_OTHER", DlPlusMmsOther: "MMS_OTHER", DlPlusChat: "CHAT",
	DlPlusChatCenter: "CHAT_CENTER", DlPlusVoteQuestion: "VOTE_QUESTION", DlPlusVoteCentre: "VOTE_CENTRE",
	DlPlusPrivate1: "PRIVATE_1", DlPlusPrivate2: "PRIVATE_2", DlPlusPrivate3: "PRIVATE_3",
	DlPlusDescriptorPlace: "DESCRIPTOR_PLACE", DlPlusDescriptorAppointment: "DESCRIPTOR_APPOINTMENT",
	DlPlusDescriptorIdentifier: "DESCRIPTOR_IDENTIFIER", DlPlusDescriptorPurchase: "DESCRIPTOR_PURCHASE",
	DlPlusDescriptorGetData: "DESCRIPTOR_GET_DATA",
}

// ParseDlPlusContentType maps a raw 7-bit DL+ content type code. Values
// with no assigned name still round-trip through String as UNKNOWN_<n>.
func ParseDlPlusContentType(v uint8) DlPlusContentType {
	return DlPlusContentType(v)
}

func (k DlPlusContentType) String() string {
	if s, ok := dlPlusNames[k]; ok {
		return s
	}
	return fmt.Sprintf("UNKNOWN_%d", uint8(k))
}

// IsDummy reports whether the tag is the DL+ padding placeholder, which
// callers should ignore rather than project onto the label.
func (k DlPlusContentType) IsDummy() bool {
	return k == DlPlusDummy
}
