// Package domain models GLORICH-style hydrochemistry tables and their
// conversion into georeferenced point datasets.
//
// # Data Source
//
// The GLObal RIver CHemistry database (GLORICH) distributes water-sample
// measurements and sampling-site metadata as separate delimited tables.
// The hydrochemistry table carries one row per water sample, keyed by the
// sampling-station identifier STAT_ID, with an open-ended set of
// measurement columns (pH, alkalinity, major ions, nutrients, ...). The
// location table carries one row per station: STAT_ID, Country, State,
// Latitude, Longitude, and a free-text CoordinateSystem label naming the
// coordinate reference system the station coordinates were recorded in.
//
// # Coordinate System Labels
//
// CoordinateSystem values are whatever the contributing institutes wrote,
// so the same CRS appears under several spellings ("WGS84", "WGS 84",
// "GCS_WGS_1984" are all EPSG:4326). CRSRegistry maps labels to EPSG codes
// and is ordered: grouping and merge output follow registry entry order,
// which keeps repeated runs byte-identical. Labels absent from the
// registry are a data-quality signal, not an error; their rows are
// excluded and reported.
//
// # Units
//
// Geographic systems (EPSG:4326, EPSG:4269) carry coordinates in decimal
// degrees; projected systems (e.g. British National Grid, EPSG:27700)
// carry them in metres. The Latitude/Longitude columns hold whichever the
// declared system uses, with Longitude as the x/easting value and
// Latitude as the y/northing value.
package domain
