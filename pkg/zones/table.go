package zones

// defaultRecords is ordered by region; lookup ties resolve in this order.
var defaultRecords = []Record{
	{ID: "UTC", DisplayName: "Coordinated Universal Time", UTCOffset: "UTC+00:00", Abbreviation: "UTC"},

	// Americas
	{ID: "America/New_York", DisplayName: "New York", UTCOffset: "UTC-05:00", Abbreviation: "EST", Country: "United States"},
	{ID: "America/Chicago", DisplayName: "Chicago", UTCOffset: "UTC-06:00", Abbreviation: "CST", Country: "United States"},
	{ID: "America/Denver", DisplayName: "Denver", UTCOffset: "UTC-07:00", Abbreviation: "MST", Country: "United States"},
	{ID: "America/Phoenix", DisplayName: "Phoenix", UTCOffset: "UTC-07:00", Abbreviation: "MST", Country: "United States"},
	{ID: "America/Los_Angeles", DisplayName: "Los Angeles", UTCOffset: "UTC-08:00", Abbreviation: "PST", Country: "United States"},
	{ID: "America/Anchorage", DisplayName: "Anchorage", UTCOffset: "UTC-09:00", Abbreviation: "AKST", Country: "United States"},
	{ID: "Pacific/Honolulu", DisplayName: "Honolulu", UTCOffset: "UTC-10:00", Abbreviation: "HST", Country: "United States"},
	{ID: "America/Toronto", DisplayName: "Toronto", UTCOffset: "UTC-05:00", Abbreviation: "EST", Country: "Canada"},
	{ID: "America/Vancouver", DisplayName: "Vancouver", UTCOffset: "UTC-08:00", Abbreviation: "PST", Country: "Canada"},
	{ID: "America/Halifax", DisplayName: "Halifax", UTCOffset: "UTC-04:00", Abbreviation: "AST", Country: "Canada"},
	{ID: "America/St_Johns", DisplayName: "St. John's", UTCOffset: "UTC-03:30", Abbreviation: "NST", Country: "Canada"},
	{ID: "America/Mexico_City", DisplayName: "Mexico City", UTCOffset: "UTC-06:00", Abbreviation: "CST", Country: "Mexico"},
	{ID: "America/Bogota", DisplayName: "Bogota", UTCOffset: "UTC-05:00", Abbreviation: "COT", Country: "Colombia"},
	{ID: "America/Lima", DisplayName: "Lima", UTCOffset: "UTC-05:00", Abbreviation: "PET", Country: "Peru"},
	{ID: "America/Santiago", DisplayName: "Santiago", UTCOffset: "UTC-04:00", Abbreviation: "CLT", Country: "Chile"},
	{ID: "America/Argentina/Buenos_Aires", DisplayName: "Buenos Aires", UTCOffset: "UTC-03:00", Abbreviation: "ART", Country: "Argentina"},
	{ID: "America/Sao_Paulo", DisplayName: "Sao Paulo", UTCOffset: "UTC-03:00", Abbreviation: "BRT", Country: "Brazil"},

	// Europe
	{ID: "Europe/London", DisplayName: "London", UTCOffset: "UTC+00:00", Abbreviation: "GMT", Country: "United Kingdom"},
	{ID: "Europe/Dublin", DisplayName: "Dublin", UTCOffset: "UTC+00:00", Abbreviation: "GMT", Country: "Ireland"},
	{ID: "Europe/Lisbon", DisplayName: "Lisbon", UTCOffset: "UTC+00:00", Abbreviation: "WET", Country: "Portugal"},
	{ID: "Europe/Paris", DisplayName: "Paris", UTCOffset: "UTC+01:00", Abbreviation: "CET", Country: "France"},
	{ID: "Europe/Berlin", DisplayName: "Berlin", UTCOffset: "UTC+01:00", Abbreviation: "CET", Country: "Germany"},
	{ID: "Europe/Madrid", DisplayName: "Madrid", UTCOffset: "UTC+01:00", Abbreviation: "CET", Country: "Spain"},
	{ID: "Europe/Rome", DisplayName: "Rome", UTCOffset: "UTC+01:00", Abbreviation: "CET", Country: "Italy"},
	{ID: "Europe/Amsterdam", DisplayName: "Amsterdam", UTCOffset: "UTC+01:00", Abbreviation: "CET", Country: "Netherlands"},
	{ID: "Europe/Zurich", DisplayName: "Zurich", UTCOffset: "UTC+01:00", Abbreviation: "CET", Country: "Switzerland"},
	{ID: "Europe/Stockholm", DisplayName: "Stockholm", UTCOffset: "UTC+01:00", Abbreviation: "CET", Country: "Sweden"},
	{ID: "Europe/Warsaw", DisplayName: "Warsaw", UTCOffset: "UTC+01:00", Abbreviation: "CET", Country: "Poland"},
	{ID: "Europe/Athens", DisplayName: "Athens", UTCOffset: "UTC+02:00", Abbreviation: "EET", Country: "Greece"},
	{ID: "Europe/Helsinki", DisplayName: "Helsinki", UTCOffset: "UTC+02:00", Abbreviation: "EET", Country: "Finland"},
	{ID: "Europe/Istanbul", DisplayName: "Istanbul", UTCOffset: "UTC+03:00", Abbreviation: "TRT", Country: "Turkey"},
	{ID: "Europe/Moscow", DisplayName: "Moscow", UTCOffset: "UTC+03:00", Abbreviation: "MSK", Country: "Russia"},

	// Africa
	{ID: "Africa/Cairo", DisplayName: "Cairo", UTCOffset: "UTC+02:00", Abbreviation: "EET", Country: "Egypt"},
	{ID: "Africa/Johannesburg", DisplayName: "Johannesburg", UTCOffset: "UTC+02:00", Abbreviation: "SAST", Country: "South Africa"},
	{ID: "Africa/Lagos", DisplayName: "Lagos", UTCOffset: "UTC+01:00", Abbreviation: "WAT", Country: "Nigeria"},
	{ID: "Africa/Nairobi", DisplayName: "Nairobi", UTCOffset: "UTC+03:00", Abbreviation: "EAT", Country: "Kenya"},

	// Asia
	{ID: "Asia/Dubai", DisplayName: "Dubai", UTCOffset: "UTC+04:00", Abbreviation: "GST", Country: "United Arab Emirates"},
	{ID: "Asia/Karachi", DisplayName: "Karachi", UTCOffset: "UTC+05:00", Abbreviation: "PKT", Country: "Pakistan"},
	{ID: "Asia/Kolkata", DisplayName: "Kolkata", UTCOffset: "UTC+05:30", Abbreviation: "IST", Country: "India"},
	{ID: "Asia/Kathmandu", DisplayName: "Kathmandu", UTCOffset: "UTC+05:45", Abbreviation: "NPT", Country: "Nepal"},
	{ID: "Asia/Dhaka", DisplayName: "Dhaka", UTCOffset: "UTC+06:00", Abbreviation: "BST", Country: "Bangladesh"},
	{ID: "Asia/Bangkok", DisplayName: "Bangkok", UTCOffset: "UTC+07:00", Abbreviation: "ICT", Country: "Thailand"},
	{ID: "Asia/Jakarta", DisplayName: "Jakarta", UTCOffset: "UTC+07:00", Abbreviation: "WIB", Country: "Indonesia"},
	{ID: "Asia/Singapore", DisplayName: "Singapore", UTCOffset: "UTC+08:00", Abbreviation: "SGT", Country: "Singapore"},
	{ID: "Asia/Hong_Kong", DisplayName: "Hong Kong", UTCOffset: "UTC+08:00", Abbreviation: "HKT", Country: "Hong Kong"},
	{ID: "Asia/Shanghai", DisplayName: "Shanghai", UTCOffset: "UTC+08:00", Abbreviation: "CST", Country: "China"},
	{ID: "Asia/Manila", DisplayName: "Manila", UTCOffset: "UTC+08:00", Abbreviation: "PHT", Country: "Philippines"},
	{ID: "Asia/Seoul", DisplayName: "Seoul", UTCOffset: "UTC+09:00", Abbreviation: "KST", Country: "South Korea"},
	{ID: "Asia/Tokyo", DisplayName: "Tokyo", UTCOffset: "UTC+09:00", Abbreviation: "JST", Country: "Japan"},

	// Oceania
	{ID: "Australia/Perth", DisplayName: "Perth", UTCOffset: "UTC+08:00", Abbreviation: "AWST", Country: "Australia"},
	{ID: "Australia/Adelaide", DisplayName: "Adelaide", UTCOffset: "UTC+09:30", Abbreviation: "ACST", Country: "Australia"},
	{ID: "Australia/Brisbane", DisplayName: "Brisbane", UTCOffset: "UTC+10:00", Abbreviation: "AEST", Country: "Australia"},
	{ID: "Australia/Sydney", DisplayName: "Sydney", UTCOffset: "UTC+10:00", Abbreviation: "AEST", Country: "Australia"},
	{ID: "Pacific/Auckland", DisplayName: "Auckland", UTCOffset: "UTC+12:00", Abbreviation: "NZST", Country: "New Zealand"},
	{ID: "Pacific/Tongatapu", DisplayName: "Nuku'alofa", UTCOffset: "UTC+13:00", Abbreviation: "TOT", Country: "Tonga"},
}

// defaultAliases maps casual terms to registry IDs. Keys are lowercase.
var defaultAliases = map[string]string{
	// Abbreviations and regions
	"est": "America/New_York", "edt": "America/New_York", "et": "America/New_York", "eastern": "America/New_York",
	"cst": "America/Chicago", "cdt": "America/Chicago", "ct": "America/Chicago", "central": "America/Chicago",
	"mst": "America/Denver", "mdt": "America/Denver", "mt": "America/Denver", "mountain": "America/Denver",
	"pst": "America/Los_Angeles", "pdt": "America/Los_Angeles", "pt": "America/Los_Angeles", "pacific": "America/Los_Angeles",
	"akst": "America/Anchorage", "hst": "Pacific/Honolulu", "hawaii": "Pacific/Honolulu",
	"utc": "UTC", "zulu": "UTC",
	"gmt": "Europe/London", "bst": "Europe/London", "uk": "Europe/London",
	"cet": "Europe/Berlin", "cest": "Europe/Berlin",
	"ist": "Asia/Kolkata", "india": "Asia/Kolkata",
	"jst": "Asia/Tokyo", "japan": "Asia/Tokyo",
	"kst": "Asia/Seoul", "korea": "Asia/Seoul",
	"aest": "Australia/Sydney", "aedt": "Australia/Sydney",
	"nzst": "Pacific/Auckland", "nzdt": "Pacific/Auckland",
	"sgt": "Asia/Singapore", "hkt": "Asia/Hong_Kong", "china": "Asia/Shanghai",

	// Cities
	"new york": "America/New_York", "nyc": "America/New_York", "boston": "America/New_York",
	"miami": "America/New_York", "atlanta": "America/New_York", "washington": "America/New_York",
	"chicago": "America/Chicago", "dallas": "America/Chicago", "houston": "America/Chicago", "austin": "America/Chicago",
	"denver": "America/Denver", "phoenix": "America/Phoenix",
	"los angeles": "America/Los_Angeles", "la": "America/Los_Angeles", "san francisco": "America/Los_Angeles",
	"sf": "America/Los_Angeles", "seattle": "America/Los_Angeles",
	"toronto": "America/Toronto", "montreal": "America/Toronto", "vancouver": "America/Vancouver",
	"mexico city": "America/Mexico_City",
	"sao paulo": "America/Sao_Paulo", "são paulo": "America/Sao_Paulo", "rio": "America/Sao_Paulo",
	"buenos aires": "America/Argentina/Buenos_Aires",
	"london": "Europe/London", "dublin": "Europe/Dublin", "paris": "Europe/Paris",
	"berlin": "Europe/Berlin", "munich": "Europe/Berlin", "frankfurt": "Europe/Berlin",
	"madrid": "Europe/Madrid", "barcelona": "Europe/Madrid", "rome": "Europe/Rome", "milan": "Europe/Rome",
	"amsterdam": "Europe/Amsterdam", "zurich": "Europe/Zurich", "stockholm": "Europe/Stockholm",
	"moscow": "Europe/Moscow", "istanbul": "Europe/Istanbul",
	"cairo": "Africa/Cairo", "johannesburg": "Africa/Johannesburg", "lagos": "Africa/Lagos", "nairobi": "Africa/Nairobi",
	"dubai": "Asia/Dubai",
	"mumbai": "Asia/Kolkata", "delhi": "Asia/Kolkata", "new delhi": "Asia/Kolkata",
	"bangalore": "Asia/Kolkata", "bengaluru": "Asia/Kolkata", "kolkata": "Asia/Kolkata",
	"bangkok": "Asia/Bangkok", "jakarta": "Asia/Jakarta", "singapore": "Asia/Singapore",
	"hong kong": "Asia/Hong_Kong", "beijing": "Asia/Shanghai", "shanghai": "Asia/Shanghai",
	"tokyo": "Asia/Tokyo", "osaka": "Asia/Tokyo", "seoul": "Asia/Seoul",
	"sydney": "Australia/Sydney", "melbourne": "Australia/Sydney",
	"auckland": "Pacific/Auckland", "honolulu": "Pacific/Honolulu",
}
