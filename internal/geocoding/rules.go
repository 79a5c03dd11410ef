package geocoding

// USPS-style street suffix and directional abbreviations.
var streetRules = rules{
	w(`ALY`, "ALLEY"),
	w(`ANX`, "ANNEX"),
	w(`ARC`, "ARCADE"),
	w(`AVE`, "AVENUE"),
	w(`BCH`, "BEACH"),
	w(`BLVD`, "BOULEVARD"),
	w(`BND`, "BEND"),
	w(`BYP`, "BYPASS"),
	w(`CIR`, "CIRCLE"),
	w(`CL`, "CLOSE"),
	w(`CLB`, "CLUB"),
	w(`CLS`, "CLOSE"),
	w(`CMN`, "COMMON"),
	w(`CNY`, "CANYON"),
	w(`COR`, "CORNER"),
	w(`CR`, "CREEK"),
	w(`CRES`, "CRESCENT"),
	w(`CRK`, "CREEK"),
	w(`CRS`, "CROSSING"),
	w(`CRT`, "COURT"),
	w(`CT`, "COURT"),
	w(`CTR`, "CENTER"),
	w(`CTY`, "COUNTY"),
	w(`CV`, "COVE"),
	w(`DIV`, "DIVERSION"),
	w(`DL`, "DALE"),
	w(`DR`, "DRIVE"),
	w(`DRV`, "DRIVE"),
	w(`E`, "EAST"),
	w(`EST`, "ESTATE"),
	w(`EXPY`, "EXPRESSWAY"),
	w(`EXT`, "EXTENSION"),
	w(`FD`, "FORD"),
	w(`FQ`, "FIRE QUARTER"),
	w(`FRD`, "FORD"),
	w(`FRNT`, "FRONT"),
	w(`FRST`, "FOREST"),
	w(`FT`, "FORT"),
	w(`GDNS`, "GARDENS"),
	w(`GRN`, "GREEN"),
	w(`HBR`, "HARBOR"),
	w(`HL`, "HILL"),
	w(`HLS`, "HILLS"),
	w(`HTS`, "HEIGHTS"),
	w(`HVN`, "HAVEN"),
	w(`HWY`, "HIGHWAY"),
	w(`ISL`, "ISLAND"),
	w(`JCT`, "JUNCTION"),
	w(`JNCTN`, "JUNCTION"),
	w(`LN`, "LANE"),
	w(`LNDG`, "LANDING"),
	w(`LNDNG`, "LANDING"),
	w(`MDW`, "MEADOW"),
	w(`MEWS`, "MEWS"),
	w(`ML`, "MALL"),
	w(`MNR`, "MINOR"),
	w(`MNT`, "MOUNT"),
	w(`MT`, "MOUNT"),
	w(`MTN`, "MOUNTAIN"),
	w(`N`, "NORTH"),
	w(`NE`, "NORTHEAST"),
	w(`NW`, "NORTHWEST"),
	w(`PARK`, "PARK"),
	w(`PK`, "PARK"),
	w(`PKWY`, "PARKWAY"),
	w(`PL`, "PLACE"),
	w(`PLZ`, "PLAZA"),
	w(`PO`, "POCKET"),
	w(`PR`, "PARK"),
	w(`PRK`, "PARK"),
	w(`PRKWAY`, "PARKWAY"),
	w(`PRKWY`, "PARKWAY"),
	w(`PROM`, "PROMENADE"),
	w(`PT`, "POINT"),
	w(`RD`, "ROAD"),
	w(`RDS`, "ROADS"),
	w(`RNCH`, "RANCH"),
	w(`RTE`, "ROUTE"),
	w(`S`, "SOUTH"),
	w(`SE`, "SOUTHEAST"),
	w(`SHR`, "SHORE"),
	w(`SQ`, "SQUARE"),
	w(`SQR`, "SQUARE"),
	w(`ST`, "STREET"),
	w(`STN`, "STATION"),
	w(`STR`, "STREET"),
	w(`SW`, "SOUTHWEST"),
	w(`TER`, "TERRACE"),
	w(`TNL`, "TUNNEL"),
	w(`TPK`, "TURNPIKE"),
	w(`TPKE`, "TURNPIKE"),
	w(`TRL`, "TRAIL"),
	w(`TUNL`, "TUNNEL"),
	w(`VLY`, "VALLEY"),
	w(`W`, "WEST"),
	w(`WD`, "WOOD"),
	w(`WDS`, "WOODS"),
	w(`WLK`, "WALK"),
	w(`WY`, "WAY"),
}

var neighborhoodRules = rules{
	r(`^DOWNTOWN .*`, "DOWNTOWN"),
	r(`^MIDTOWN .*`, "MIDTOWN"),
	r(`^UPTOWN .*`, "UPTOWN"),
	r(`^CENTRAL .*`, "CENTRAL"),
	r(`CBD`, "CENTRAL"),
	r(`BUSINESS DISTRICT`, "CENTRAL"),
	r(`CENTRAL BUSINESS DISTRICT`, "CENTRAL"),
	r(`FINANCIAL DISTRICT`, "FINANCIAL DISTRICT"),
	r(`THE FINANCIAL DISTRICT`, "FINANCIAL DISTRICT"),
}

var boroughRules = rules{
	r(`^(THE )?.*?BOROUGH OF `, ""),
	r(`, (THE )?.*BOROUGH OF$`, ""),
	w(`BORO`, "BOROUGH"),
	w(`BRO`, "BOROUGH"),
}

var cityRules = rules{
	r(`^(THE )?(CITY|TOWN|VILLAGE|MUNICIPALITY|DISTRICT) OF `, ""),
	r(`, (THE )?(CITY|TOWN|VILLAGE|MUNICIPALITY|DISTRICT) OF$`, ""),
	w(`CITY$`, ""),
	w(`ST`, "SAINT"),
	w(`MT`, "MOUNT"),
	w(`FT`, "FORT"),
}

var countyRules = rules{
	r(`^(THE )?(COUNTY OF )`, ""),
	r(`, (THE )?(COUNTY OF )$`, ""),
	w(`COUNTY`, ""),
	w(`CO`, ""),
	w(`CTY`, ""),
}

var stateRules = rules{
	r(`^(THE )?(STATE|COMMONWEALTH) OF`, ""),
	r(`, (THE )?(STATE|COMMONWEALTH) OF$`, ""),
	w(`STATE`, ""),
	w(`ST`, ""),
}
