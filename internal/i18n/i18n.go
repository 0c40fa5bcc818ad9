package i18n

// Language 界面语言标识
type Language string

const (
	// LanguageEnglish 英语
	LanguageEnglish Language = "en"
	// LanguageSwahili 斯瓦希里语
	LanguageSwahili Language = "sw"
)

// DefaultLanguage 未指定语言时的缺省值
const DefaultLanguage = LanguageEnglish

// Languages 返回支持的语言列表
func Languages() []Language {
	return []Language{LanguageEnglish, LanguageSwahili}
}

// Valid 判断语言标识是否受支持
func (l Language) Valid() bool {
	return l == LanguageEnglish || l == LanguageSwahili
}

// entry 一条文案在各语言下的译文
type entry struct {
	en string
	sw string
}

// translations 全部界面文案。键名与前端保持一致，方便对照维护。
var translations = map[string]entry{
	// 首页
	"tagline":      {en: "Create beautiful letters for your loved ones", sw: "Waandikie wapendwa wako barua za kipekee"},
	"createLetter": {en: "Create a Letter", sw: "Andika Barua"},
	"openLetter":   {en: "Open a Letter", sw: "Fungua Barua"},

	// 写信页
	"dear":           {en: "My Love", sw: "Mpenzi Wangu"},
	"name":           {en: "Name", sw: "Jina"},
	"writeMessage":   {en: "Write your message here...", sw: "Andika ujumbe wako hapa..."},
	"done":           {en: "Done", sw: "Tuma"},
	"send":           {en: "Send", sw: "Tuma"},
	"recipientName":  {en: "Recipient's name", sw: "Jina la mpokeaji"},
	"backToLetter":   {en: "← Back to letter", sw: "← Rudi kwenye barua"},
	"creatingLetter": {en: "Creating your letter...", sw: "Barua yako inaandaliwa..."},

	// 分享页
	"readyToShare":  {en: "Your letter is ready to share!", sw: "Barua yako iko tayari kutumwa!"},
	"copy":          {en: "Copy", sw: "Copy"},
	"copied":        {en: "Copied!", sw: "Copied!"},
	"createAnother": {en: "Create another letter", sw: "Andika barua nyingine"},

	// 打开信件页
	"openALetter": {en: "Open a Letter", sw: "Fungua Barua"},
	"enterCode":   {en: "Enter the letter link or code you received", sw: "Weka link au code ya barua uliyopokea"},
	"pasteLink":   {en: "Paste link or enter code...", sw: "Weka link au code..."},
	"backHome":    {en: "← Back home", sw: "← Rudi nyumbani"},

	// 读信页
	"writeALetter":   {en: "Write a Letter", sw: "Andika Barua"},
	"clickToOpen":    {en: "Click to open", sw: "Bofya kufungua"},
	"clickToRead":    {en: "Click to read", sw: "Bofya kusoma"},
	"clickToFlip":    {en: "Click to flip", sw: "Bofya kugeuza"},
	"letterNotFound": {en: "Letter not found", sw: "Barua haijapatikana"},
	"goHome":         {en: "Go Home", sw: "Rudi Nyumbani"},
	"oops":           {en: "Oops!", sw: "Pole!"},

	// 语言选择
	"chooseLanguage": {en: "Choose your language", sw: "Chagua lugha yako"},
	"english":        {en: "English", sw: "Kiingereza"},
	"swahili":        {en: "Swahili", sw: "Kiswahili"},

	// 附件操作
	"addPhotos":     {en: "Add Photos", sw: "Weka Picha"},
	"addVoiceNote":  {en: "Add voice note", sw: "Weka sauti"},
	"stopRecording": {en: "Stop", sw: "Simama"},
	"voiceNote":     {en: "Voice note attached", sw: "Sauti imeambatishwa"},
	"voiceMessage":  {en: "Voice message", sw: "Ujumbe wa sauti"},

	// 错误提示
	"pleaseWriteMessage": {en: "Please write a message", sw: "Tafadhali andika ujumbe"},
	"pleaseEnterName":    {en: "Please enter recipient name", sw: "Tafadhali ingiza jina la mpokeaji"},
	"failedToCreate":     {en: "Failed to create letter. Please try again.", sw: "Imeshindwa kuunda barua. Tafadhali jaribu tena."},
	"pleaseEnterCode":    {en: "Please enter a letter code or link", sw: "Tafadhali ingiza msimbo au kiungo cha barua"},
	"linkCopied":         {en: "Link copied!", sw: "Link copied!"},
	"failedToCopy":       {en: "Failed to copy", sw: "Imeshindwa kunakili"},
	"photoTooLarge":      {en: "Photo must be less than 5MB", sw: "Picha lazima iwe chini ya 5MB"},
}

// T 按语言取文案。未收录的键原样返回，缺失的译文回退到英语。
func T(lang Language, key string) string {
	e, ok := translations[key]
	if !ok {
		return key
	}

	if lang == LanguageSwahili && e.sw != "" {
		return e.sw
	}
	if e.en != "" {
		return e.en
	}
	return key
}

// Keys 返回全部文案键（顺序不保证），供校验与工具使用。
func Keys() []string {
	keys := make([]string, 0, len(translations))
	for k := range translations {
		keys = append(keys, k)
	}
	return keys
}
