package web

// indexHTML is the upload form. Dates default to the winter 24 term as
// a worked example; users adjust them per term.
const indexHTML = `<!doctype html>
<html>
<head>
    <title>Webreg to ics</title>

    <link href="https://cdn.jsdelivr.net/npm/bootstrap@5.3.2/dist/css/bootstrap.min.css" rel="stylesheet" integrity="sha384-T3c6CoIi6uLrA9TneNEoa7RxnatzjcDSCmG1MXxSR1GAsXEV/Dwwykc2MPK8M2HN" crossorigin="anonymous">
</head>
<body class="container">
    <br />
    <h1>UCSD Webreg to Calendar</h1>
    <p>Converts an html download from the webreg list view to a iCal file that can be imported to Google Calendar.</p>
    <p>Uses repeating events to avoid flooding calendar with events</p>
    <p>Includes all scheduled course meetings including exams.</p>
    <p>Upload a html file that is from <a href="https://act.ucsd.edu/webreg2/start" target="_blank">webreg</a> after you select a term (stay in list view). Make sure to select full page contents or the equivalent for your browser.</p>
    <hr />
    <form class="d-grid gap-3" method="post" enctype="multipart/form-data">
        <label class="form-label" for="startDate">Term start date (this is winter 24)</label>
        <input class="form-control" type="date" id="startDate" name="startDate" value="2024-01-08" />

        <label class="form-label" for="endDate">Term end date</label>
        <input class="form-control" type="date" id="endDate" name="endDate" value="2024-03-16" />

        <label class="form-label" for="file">webregMain.html file</label>
        <input class="form-control" type="file" id="file" name="file" />

        <button class="btn btn-primary" type="submit">Upload</button>
    </form>
</body>
</html>
`
